package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestCreateApp(t *testing.T) {
	tests := map[string]struct {
		cfg     *Config
		wantErr string
	}{
		"valid": {
			cfg: &Config{ServiceName: "widecolumn", StopTimeout: time.Second},
		},
		"missing everything": {
			cfg:     &Config{},
			wantErr: "service name is required\nstop timeout is required",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			a, err := CreateApp(tc.cfg)
			if tc.wantErr != "" {
				req.EqualError(err, tc.wantErr)
				req.Nil(a)
				return
			}
			req.NoError(err)
			req.NotNil(a)
		})
	}
}

// expectStart expects one Start call returning err and counts it on started.
func expectStart(dep *MockDependency, started *sync.WaitGroup, err error) {
	started.Add(1)
	dep.EXPECT().Start().DoAndReturn(func() error {
		started.Done()
		return err
	})
}

func TestApp_Run(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	store := NewMockDependency(ctrl)
	server := NewMockDependency(ctrl)
	store.EXPECT().Name().Return("Storage Manager").AnyTimes()
	server.EXPECT().Name().Return("gRPC Server").AnyTimes()

	var started sync.WaitGroup
	expectStart(store, &started, nil)
	expectStart(server, &started, nil)
	// servers stop before the store they serve
	gomock.InOrder(
		server.EXPECT().Stop().Return(nil),
		store.EXPECT().Stop().Return(nil),
	)

	a, err := CreateApp(&Config{ServiceName: "widecolumn", StopTimeout: time.Second}, store, server)
	req.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.Run(ctx)
	}()
	started.Wait()
	cancel()

	req.NoError(<-done)
	req.EqualError(a.Run(context.Background()), "run has already been called")
}

func TestApp_RunDependencyFails(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	errBind := errors.New("address already in use")
	dep := NewMockDependency(ctrl)
	dep.EXPECT().Name().Return("Metrics Server").AnyTimes()
	var started sync.WaitGroup
	expectStart(dep, &started, errBind)
	dep.EXPECT().Stop().Return(nil)

	a, err := CreateApp(&Config{ServiceName: "widecolumn", StopTimeout: time.Second}, dep)
	req.NoError(err)
	req.ErrorIs(a.Run(context.Background()), errBind)
}

func TestApp_StopTimeout(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	dep := NewMockDependency(ctrl)
	dep.EXPECT().Name().Return("Storage Manager").AnyTimes()
	var started sync.WaitGroup
	expectStart(dep, &started, nil)
	release := make(chan struct{})
	defer close(release)
	dep.EXPECT().Stop().DoAndReturn(func() error {
		<-release
		return nil
	})

	a, err := CreateApp(&Config{ServiceName: "widecolumn", StopTimeout: 50 * time.Millisecond}, dep)
	req.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		started.Wait()
		cancel()
	}()
	req.ErrorIs(a.Run(ctx), context.DeadlineExceeded)
}
