package reaper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestNew(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		cfg     *Config
		wantErr bool
	}{
		"missing purger": {
			cfg:     &Config{GCInterval: time.Second},
			wantErr: true,
		},
		"missing interval": {
			cfg:     &Config{Purger: NewMockpurger(gomock.NewController(t))},
			wantErr: true,
		},
		"valid": {
			cfg: &Config{Purger: NewMockpurger(gomock.NewController(t)), GCInterval: time.Second},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := New(tc.cfg)
			if tc.wantErr {
				require.Error(t, err)
				require.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got)
		})
	}
}

func TestReaper_Collect(t *testing.T) {
	t.Parallel()
	req := require.New(t)
	ctrl := gomock.NewController(t)
	p := NewMockpurger(ctrl)

	r, err := New(&Config{Purger: p, GCInterval: time.Hour})
	req.NoError(err)

	now := time.Now()
	expired := &GCParams{
		Table:      "Customers",
		RowKey:     []byte("u1"),
		Family:     "orders",
		Qualifiers: []string{"x1"},
		Timestamp:  10,
		ExpiresAt:  now.Add(-time.Minute),
	}
	fresh := &GCParams{
		Table:      "Customers",
		RowKey:     []byte("u2"),
		Family:     "orders",
		Qualifiers: []string{"y1"},
		Timestamp:  11,
		ExpiresAt:  now.Add(time.Hour),
	}
	r.Reap(expired)
	r.Reap(fresh)
	req.Equal(2, r.Pending())

	p.EXPECT().Purge(gomock.Any()).DoAndReturn(func(got *GCParams) bool {
		req.Equal(expired.RowKey, got.RowKey)
		return true
	}).Times(1)

	req.Equal(1, r.Collect(now))
	req.Equal(1, r.Pending())

	// nothing left to expire yet
	req.Equal(0, r.Collect(now))

	p.EXPECT().Purge(gomock.Any()).Return(false).Times(1)
	req.Equal(0, r.Collect(now.Add(2*time.Hour)))
	req.Equal(0, r.Pending())
}

func TestReaper_StartStop(t *testing.T) {
	t.Parallel()
	req := require.New(t)
	ctrl := gomock.NewController(t)
	p := NewMockpurger(ctrl)

	r, err := New(&Config{Purger: p, GCInterval: 10 * time.Millisecond})
	req.NoError(err)

	purged := make(chan struct{}, 1)
	p.EXPECT().Purge(gomock.Any()).DoAndReturn(func(*GCParams) bool {
		purged <- struct{}{}
		return true
	}).Times(1)

	r.Reap(&GCParams{Table: "t", RowKey: []byte("r"), ExpiresAt: time.Now()})
	req.NoError(r.Start())

	select {
	case <-purged:
	case <-time.After(2 * time.Second):
		t.Fatal("reaper never collected the expired marker")
	}

	req.NoError(r.Stop())
	req.Equal("Reaper", r.Name())
}
