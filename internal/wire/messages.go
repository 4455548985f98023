package wire

import "github.com/litetable/widecolumn/pkg/model"

type Empty struct{}

type ClusterInfoRequest struct{}

type ClusterInfoResponse struct {
	MasterAddress string             `json:"masterAddress"`
	Capabilities  model.Capabilities `json:"capabilities"`
}

type ListTablesRequest struct{}

type ListTablesResponse struct {
	Tables []string `json:"tables"`
}

type CreateTableRequest struct {
	Table    string   `json:"table"`
	Families []string `json:"families"`
}

type TableRequest struct {
	Table string `json:"table"`
}

type IsTableEnabledResponse struct {
	Enabled bool `json:"enabled"`
}

type FamilyRequest struct {
	Table  string `json:"table"`
	Family string `json:"family"`
}

type ListFamiliesResponse struct {
	Families []string `json:"families"`
}

type PutRequest struct {
	Table     string           `json:"table"`
	RowKey    []byte           `json:"rowKey"`
	Family    string           `json:"family"`
	Mutations []model.Mutation `json:"mutations"`
}

type GetRequest struct {
	Table   string            `json:"table"`
	RowKey  []byte            `json:"rowKey"`
	Options model.ReadOptions `json:"options"`
}

type RowResponse struct {
	Row *model.Row `json:"row"`
}

type DeleteRequest struct {
	Table      string   `json:"table"`
	RowKey     []byte   `json:"rowKey"`
	Family     string   `json:"family"`
	Qualifiers []string `json:"qualifiers"`
}

type ScanRequest struct {
	Table string     `json:"table"`
	Scan  model.Scan `json:"scan"`
}
