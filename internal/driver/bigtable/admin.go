package bigtable

import (
	"context"
	"fmt"
	"slices"

	"cloud.google.com/go/bigtable"
	"github.com/litetable/widecolumn/internal/driver"
	"github.com/litetable/widecolumn/pkg/model"
	"github.com/rs/zerolog/log"
)

type admin struct {
	*driver.Handle
	d *Driver
}

func (a *admin) Tables(ctx context.Context) ([]string, error) {
	if err := a.Check(ctx); err != nil {
		return nil, err
	}
	tables, err := a.d.admin.Tables(ctx)
	if err != nil {
		return nil, translate(err, "")
	}
	slices.Sort(tables)
	return tables, nil
}

func (a *admin) CreateTable(ctx context.Context, name string, families []string) error {
	if err := a.Check(ctx); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%w: table name is empty", model.ErrInvalidName)
	}
	if len(families) == 0 {
		return fmt.Errorf("%w: table %s", model.ErrNoFamilies, name)
	}
	seen := make(map[string]struct{}, len(families))
	for _, f := range families {
		if f == "" {
			return fmt.Errorf("%w: family name is empty", model.ErrInvalidName)
		}
		if _, dup := seen[f]; dup {
			return fmt.Errorf("%w: %s", model.ErrDuplicateFamily, f)
		}
		seen[f] = struct{}{}
	}

	existing, err := a.d.admin.Tables(ctx)
	if err != nil {
		return translate(err, name)
	}
	if slices.Contains(existing, name) {
		return fmt.Errorf("%w: %s", model.ErrTableExists, name)
	}

	if err = a.d.admin.CreateTable(ctx, name); err != nil {
		return translate(err, name)
	}
	for _, f := range families {
		if err = a.createFamily(ctx, name, f); err != nil {
			// leave nothing half created behind
			if dropErr := a.d.admin.DeleteTable(ctx, name); dropErr != nil {
				log.Warn().Err(dropErr).Msgf("could not remove partially created table %s", name)
			}
			return err
		}
	}
	return nil
}

func (a *admin) createFamily(ctx context.Context, name, family string) error {
	if err := a.d.admin.CreateColumnFamily(ctx, name, family); err != nil {
		return translate(err, name)
	}
	policy := bigtable.MaxVersionsPolicy(a.d.maxVersions)
	if err := a.d.admin.SetGCPolicy(ctx, name, family, policy); err != nil {
		return translate(err, name)
	}
	return nil
}

// DisableTable only checks existence: Bigtable tables are always online.
func (a *admin) DisableTable(ctx context.Context, name string) error {
	if err := a.Check(ctx); err != nil {
		return err
	}
	_, err := a.d.families(ctx, name)
	return err
}

func (a *admin) EnableTable(ctx context.Context, name string) error {
	if err := a.Check(ctx); err != nil {
		return err
	}
	_, err := a.d.families(ctx, name)
	return err
}

func (a *admin) IsTableEnabled(ctx context.Context, name string) (bool, error) {
	if err := a.Check(ctx); err != nil {
		return false, err
	}
	if _, err := a.d.families(ctx, name); err != nil {
		return false, err
	}
	return true, nil
}

func (a *admin) DeleteTable(ctx context.Context, name string) error {
	if err := a.Check(ctx); err != nil {
		return err
	}
	return translate(a.d.admin.DeleteTable(ctx, name), name)
}

func (a *admin) AddFamily(ctx context.Context, table, family string) error {
	if err := a.Check(ctx); err != nil {
		return err
	}
	if family == "" {
		return fmt.Errorf("%w: family name is empty", model.ErrInvalidName)
	}
	families, err := a.d.families(ctx, table)
	if err != nil {
		return err
	}
	if slices.Contains(families, family) {
		return fmt.Errorf("%w: %s in table %s", model.ErrFamilyExists, family, table)
	}
	return a.createFamily(ctx, table, family)
}

func (a *admin) DeleteFamily(ctx context.Context, table, family string) error {
	if err := a.Check(ctx); err != nil {
		return err
	}
	families, err := a.d.families(ctx, table)
	if err != nil {
		return err
	}
	if !slices.Contains(families, family) {
		return fmt.Errorf("%w: %s in table %s", model.ErrFamilyNotFound, family, table)
	}
	if len(families) == 1 {
		return fmt.Errorf("%w: %s", model.ErrLastFamily, table)
	}
	return translate(a.d.admin.DeleteColumnFamily(ctx, table, family), table)
}

func (a *admin) Families(ctx context.Context, table string) ([]string, error) {
	if err := a.Check(ctx); err != nil {
		return nil, err
	}
	return a.d.families(ctx, table)
}

func (a *admin) Close() error {
	return a.Release()
}
