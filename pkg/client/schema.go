package client

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/litetable/widecolumn/internal/driver"
)

// schemaOp names a schema call for its errors and log lines.
type schemaOp struct {
	op     string
	table  string
	family string
}

func (o schemaOp) fail(step Step, err error) error {
	return &SchemaError{Op: o.op, Table: o.table, Family: o.family, Step: step, Err: err}
}

// withAdmin runs fn on a fresh admin handle and closes it. A close failure is the call's error
// when fn succeeded.
func (h *Handle) withAdmin(ctx context.Context, o schemaOp, fn func(driver.Admin) error) error {
	a, err := h.driver.Admin(ctx)
	if err != nil {
		return o.fail("", err)
	}
	err = fn(a)
	if closeErr := a.Close(); closeErr != nil && err == nil {
		err = o.fail(StepRelease, closeErr)
	}

	if err != nil {
		h.log.Debug().Err(err).Str("op", o.op).Str("table", o.table).Msg("schema operation failed")
		return err
	}
	h.log.Debug().Str("op", o.op).Str("table", o.table).Str("family", o.family).
		Msg("schema operation")
	return nil
}

// CreateTable creates an enabled table with exactly the given families.
func (h *Handle) CreateTable(ctx context.Context, name string, families ...string) error {
	o := schemaOp{op: "create table", table: name}
	return h.withAdmin(ctx, o, func(a driver.Admin) error {
		if err := a.CreateTable(ctx, name, families); err != nil {
			return o.fail("", err)
		}
		return nil
	})
}

// DeleteTable disables the table, then drops it. The outcome tells how far it got even when
// err is set: DeleteCompleted with a StepRelease error means the table is gone and only the
// admin handle failed to close. A table that is already disabled skips the disable step, so
// retrying after DeleteDisabledOnly goes straight to the drop.
func (h *Handle) DeleteTable(ctx context.Context, name string) (DeleteOutcome, error) {
	o := schemaOp{op: "delete table", table: name}
	caps := h.driver.Capabilities()
	outcome := DeleteNotStarted

	err := h.withAdmin(ctx, o, func(a driver.Admin) error {
		disabled := false
		if caps.TableStates {
			enabled, err := a.IsTableEnabled(ctx, name)
			if err != nil {
				return o.fail(StepDisable, err)
			}
			disabled = !enabled
		}
		if !disabled {
			// on stores without table states this only checks the table exists
			if err := a.DisableTable(ctx, name); err != nil {
				return o.fail(StepDisable, err)
			}
		}
		if caps.TableStates {
			outcome = DeleteDisabledOnly
		}

		if err := a.DeleteTable(ctx, name); err != nil {
			return o.fail(StepDrop, err)
		}
		outcome = DeleteCompleted
		return nil
	})
	return outcome, err
}

// EnableTable brings a disabled table back online.
func (h *Handle) EnableTable(ctx context.Context, name string) error {
	o := schemaOp{op: "enable table", table: name}
	return h.withAdmin(ctx, o, func(a driver.Admin) error {
		if err := a.EnableTable(ctx, name); err != nil {
			return o.fail(StepEnable, err)
		}
		return nil
	})
}

// DisableTable takes a table offline. Data operations on it fail with ErrTableDisabled.
func (h *Handle) DisableTable(ctx context.Context, name string) error {
	o := schemaOp{op: "disable table", table: name}
	return h.withAdmin(ctx, o, func(a driver.Admin) error {
		if err := a.DisableTable(ctx, name); err != nil {
			return o.fail(StepDisable, err)
		}
		return nil
	})
}

// AddColumnFamily adds an empty family to an enabled table.
func (h *Handle) AddColumnFamily(ctx context.Context, table, family string) error {
	o := schemaOp{op: "add column family", table: table, family: family}
	return h.withAdmin(ctx, o, func(a driver.Admin) error {
		if err := a.AddFamily(ctx, table, family); err != nil {
			return o.fail("", err)
		}
		return nil
	})
}

// DeleteColumnFamily drops a family and every cell in it. On stores that only drop families
// from disabled tables, an enabled table is disabled around the drop and enabled again
// afterwards, also when the drop fails.
func (h *Handle) DeleteColumnFamily(ctx context.Context, table, family string) error {
	o := schemaOp{op: "delete column family", table: table, family: family}
	requiresDisable := h.driver.Capabilities().FamilyDropRequiresDisable

	return h.withAdmin(ctx, o, func(a driver.Admin) error {
		if !requiresDisable {
			if err := a.DeleteFamily(ctx, table, family); err != nil {
				return o.fail(StepDrop, err)
			}
			return nil
		}
		return h.dropFamilyOffline(ctx, a, o)
	})
}

func (h *Handle) dropFamilyOffline(ctx context.Context, a driver.Admin, o schemaOp) error {
	// refuse what the drop would refuse before taking the table offline
	families, err := a.Families(ctx, o.table)
	if err != nil {
		return o.fail("", err)
	}
	if !slices.Contains(families, o.family) {
		return o.fail("", fmt.Errorf("%w: %s in table %s", ErrFamilyNotFound, o.family, o.table))
	}
	if len(families) == 1 {
		return o.fail("", fmt.Errorf("%w: %s", ErrLastFamily, o.table))
	}

	enabled, err := a.IsTableEnabled(ctx, o.table)
	if err != nil {
		return o.fail(StepDisable, err)
	}
	if enabled {
		if err = a.DisableTable(ctx, o.table); err != nil {
			return o.fail(StepDisable, err)
		}
	}

	dropErr := a.DeleteFamily(ctx, o.table, o.family)
	if !enabled {
		if dropErr != nil {
			return o.fail(StepDrop, dropErr)
		}
		return nil
	}

	if err = a.EnableTable(ctx, o.table); err != nil {
		if dropErr != nil {
			return o.fail(StepDrop, errors.Join(dropErr, err))
		}
		return o.fail(StepEnable, err)
	}
	if dropErr != nil {
		return o.fail(StepDrop, dropErr)
	}
	return nil
}

// DescribeSchema returns the table's family names in ascending order.
func (h *Handle) DescribeSchema(ctx context.Context, table string) ([]string, error) {
	o := schemaOp{op: "describe schema", table: table}
	var families []string
	err := h.withAdmin(ctx, o, func(a driver.Admin) error {
		f, err := a.Families(ctx, table)
		if err != nil {
			return o.fail("", err)
		}
		families = slices.Sorted(slices.Values(f))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return families, nil
}

// ListTables returns every table name in ascending order.
func (h *Handle) ListTables(ctx context.Context) ([]string, error) {
	o := schemaOp{op: "list tables"}
	var tables []string
	err := h.withAdmin(ctx, o, func(a driver.Admin) error {
		t, err := a.Tables(ctx)
		if err != nil {
			return o.fail("", err)
		}
		tables = slices.Sorted(slices.Values(t))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tables, nil
}
