// Package memory implements the roster and work item providers on an
// in-memory database, for offline evaluation and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/hashicorp/go-memdb"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/database"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/models"
)

// DB is an in-memory roster and work item store
type DB struct {
	db     *memdb.MemDB
	nextID atomic.Uint64
}

// New returns an empty in-memory store
func New() (*DB, error) {
	memDB, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}
	return &DB{db: memDB}, nil
}

func (d *DB) id() uint {
	return uint(d.nextID.Add(1))
}

// PutPerson inserts or replaces a person keyed by name
func (d *DB) PutPerson(_ context.Context, p models.Person) (models.Person, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblPeople, "id", p.Name)
	if err != nil {
		return models.Person{}, fmt.Errorf("find person %s: %w", p.Name, err)
	}
	if raw != nil {
		p.ID = raw.(*models.Person).ID
	} else if p.ID == 0 {
		p.ID = d.id()
	}

	stored := p
	if err := txn.Insert(tblPeople, &stored); err != nil {
		return models.Person{}, fmt.Errorf("insert person %s: %w", p.Name, err)
	}
	txn.Commit()
	return p, nil
}

// CreatePerson inserts a person, failing when the name is taken
func (d *DB) CreatePerson(ctx context.Context, p models.Person) (models.Person, error) {
	if _, err := d.PersonByName(ctx, p.Name); err == nil {
		return models.Person{}, fmt.Errorf("person %s: %w", p.Name, database.ErrDuplicate)
	}
	p.ID = 0
	return d.PutPerson(ctx, p)
}

// PersonByName looks up a person by their unique name
func (d *DB) PersonByName(_ context.Context, name string) (models.Person, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblPeople, "id", name)
	if err != nil {
		return models.Person{}, fmt.Errorf("find person %s: %w", name, err)
	}
	if raw == nil {
		return models.Person{}, fmt.Errorf("%s: %w", name, database.ErrNotFound)
	}
	return *raw.(*models.Person), nil
}

// ListPeople returns every person ordered by name
func (d *DB) ListPeople(_ context.Context) ([]models.Person, error) {
	return d.people("id")
}

// ActivePeople returns the people flagged active ordered by name
func (d *DB) ActivePeople(_ context.Context) ([]models.Person, error) {
	return d.people("active", true)
}

// AvailablePeople returns active people whose end date is unset or not before date
func (d *DB) AvailablePeople(ctx context.Context, date models.Date) ([]models.Person, error) {
	active, err := d.ActivePeople(ctx)
	if err != nil {
		return nil, err
	}
	available := make([]models.Person, 0, len(active))
	for _, p := range active {
		if p.AvailableOn(date) {
			available = append(available, p)
		}
	}
	return available, nil
}

func (d *DB) people(index string, args ...interface{}) ([]models.Person, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblPeople, index, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch people by %s: %w", index, err)
	}

	var people []models.Person
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		people = append(people, *raw.(*models.Person))
	}
	sort.Slice(people, func(i, j int) bool { return people[i].Name < people[j].Name })
	return people, nil
}

// PutAssignment inserts or replaces an assignment keyed by issue and assignee
func (d *DB) PutAssignment(_ context.Context, w models.WorkItem) (models.WorkItem, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblAssignments, "id", w.IssueKey, w.AssigneeName)
	if err != nil {
		return models.WorkItem{}, fmt.Errorf("find assignment %s: %w", w.IssueKey, err)
	}
	if raw != nil {
		w.ID = raw.(*models.WorkItem).ID
	} else if w.ID == 0 {
		w.ID = d.id()
	}
	if w.Status == "" {
		w.Status = models.StatusNotStarted
	}

	stored := w
	if err := txn.Insert(tblAssignments, &stored); err != nil {
		return models.WorkItem{}, fmt.Errorf("insert assignment %s: %w", w.IssueKey, err)
	}
	txn.Commit()
	return w, nil
}

// CreateAssignment inserts an assignment
func (d *DB) CreateAssignment(ctx context.Context, w models.WorkItem) (models.WorkItem, error) {
	w.ID = 0
	return d.PutAssignment(ctx, w)
}

// FindAssignment looks up the assignment of an issue to a person
func (d *DB) FindAssignment(_ context.Context, issueKey, assignee string) (models.WorkItem, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblAssignments, "id", issueKey, assignee)
	if err != nil {
		return models.WorkItem{}, fmt.Errorf("find assignment %s: %w", issueKey, err)
	}
	if raw == nil {
		return models.WorkItem{}, fmt.Errorf("%s/%s: %w", issueKey, assignee, database.ErrNotFound)
	}
	return *raw.(*models.WorkItem), nil
}

// ListAssignments returns every assignment ordered by id
func (d *DB) ListAssignments(_ context.Context) ([]models.WorkItem, error) {
	return d.assignments("id")
}

// AssignmentsByAssignee returns all of a person's assignments
func (d *DB) AssignmentsByAssignee(_ context.Context, name string) ([]models.WorkItem, error) {
	return d.assignments("assignee", name)
}

// ActiveItemsByAssignee returns a person's assignments that still consume capacity
func (d *DB) ActiveItemsByAssignee(ctx context.Context, name string) ([]models.WorkItem, error) {
	all, err := d.AssignmentsByAssignee(ctx, name)
	if err != nil {
		return nil, err
	}
	active := make([]models.WorkItem, 0, len(all))
	for _, w := range all {
		if w.Active() {
			active = append(active, w)
		}
	}
	return active, nil
}

// WorkloadByAssigneeUntil returns a person's active assignments due on or before date
func (d *DB) WorkloadByAssigneeUntil(ctx context.Context, name string, date models.Date) ([]models.WorkItem, error) {
	active, err := d.ActiveItemsByAssignee(ctx, name)
	if err != nil {
		return nil, err
	}
	due := make([]models.WorkItem, 0, len(active))
	for _, w := range active {
		if w.EstimatedCompletionDate != nil && !w.EstimatedCompletionDate.After(date) {
			due = append(due, w)
		}
	}
	return due, nil
}

func (d *DB) assignments(index string, args ...interface{}) ([]models.WorkItem, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblAssignments, index, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch assignments by %s: %w", index, err)
	}

	var items []models.WorkItem
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		items = append(items, *raw.(*models.WorkItem))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}
