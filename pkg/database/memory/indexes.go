package memory

import "github.com/hashicorp/go-memdb"

var (
	tblPeople      = "people"
	tblAssignments = "assignments"
)

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tblPeople: {
			Name: tblPeople,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Name"},
				},
				"active": {
					Name:    "active",
					Indexer: &memdb.BoolFieldIndex{Field: "Active"},
				},
			},
		},
		tblAssignments: {
			Name: tblAssignments,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:   "id",
					Unique: true,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "IssueKey"},
							&memdb.StringFieldIndex{Field: "AssigneeName"},
						},
					},
				},
				"assignee": {
					Name:    "assignee",
					Indexer: &memdb.StringFieldIndex{Field: "AssigneeName"},
				},
			},
		},
	},
}
