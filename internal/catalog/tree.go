package catalog

import (
	"context"
	"log/slog"
	"slices"

	sq "github.com/Masterminds/squirrel"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/forecastdb/internal/schema"
	"github.com/roach88/forecastdb/internal/store"
)

// Edge is one (parent, child) link in a model hierarchy.
// The root parent is the empty string.
type Edge struct {
	Parent string `json:"parent"`
	Node   string `json:"node"`
}

// Branch holds one level of analysis' edges per type of violence.
type Branch struct {
	SB []Edge `json:"sb"`
	NS []Edge `json:"ns"`
	OS []Edge `json:"os"`
	PX []Edge `json:"px"`
}

// ModelTree is a run's full model hierarchy.
type ModelTree struct {
	CM  Branch `json:"cm"`
	PGM Branch `json:"pgm"`
}

// Axis returns the edges for one (loa, tv) pair.
func (t *ModelTree) Axis(loa schema.LOA, tv schema.TV) []Edge {
	return *t.slot(loa, tv)
}

func (t *ModelTree) slot(loa schema.LOA, tv schema.TV) *[]Edge {
	b := &t.CM
	if loa == schema.GridMonth {
		b = &t.PGM
	}
	switch tv {
	case schema.NonState:
		return &b.NS
	case schema.OneSided:
		return &b.OS
	case schema.Proxy:
		return &b.PX
	default:
		return &b.SB
	}
}

// maxAxisWorkers bounds how many axis walks hold a pooled connection at once.
const maxAxisWorkers = 4

// ModelTree returns the run's model hierarchy, resolving it on first call.
func (r *Run) ModelTree(ctx context.Context) (*ModelTree, error) {
	r.mu.Lock()
	cached := r.tree
	r.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	v, err, _ := r.group.Do("tree", func() (any, error) {
		r.mu.Lock()
		cached := r.tree
		r.mu.Unlock()
		if cached != nil {
			return cached, nil
		}

		tree, err := r.resolveTree(ctx)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.tree = tree
		r.mu.Unlock()
		return tree, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ModelTree), nil
}

func (r *Run) resolveTree(ctx context.Context) (*ModelTree, error) {
	tree := &ModelTree{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxAxisWorkers)

	for _, loa := range schema.LOAs {
		for _, tv := range schema.TVs {
			slot := tree.slot(loa, tv)
			g.Go(func() error {
				edges, err := r.resolveAxis(gctx, loa, tv)
				if err != nil {
					return err
				}
				*slot = edges
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Debug("model tree resolved", "run", r.ID)
	return tree, nil
}

// resolveAxis walks one (loa, tv) hierarchy from the root.
//
// Each level emits every child of the current node, then descends into the
// first child only (in node order):
//
//	walk(p) = children(p) ++ walk(first(children(p)))
//
// Siblings after the first are listed but never expanded. The walk ends at
// a node with no children, so a leaf contributes nothing, or when the first
// child is already on the path.
func (r *Run) resolveAxis(ctx context.Context, loa schema.LOA, tv schema.TV) ([]Edge, error) {
	edges := []Edge{}
	node := ""
	path := []string{node}

	for {
		children, err := r.children(ctx, loa, tv, node)
		if err != nil {
			return nil, err
		}
		if len(children) == 0 {
			return edges, nil
		}
		for _, c := range children {
			edges = append(edges, Edge{Parent: node, Node: c})
		}

		next := children[0]
		if slices.Contains(path, next) {
			return edges, nil
		}
		path = append(path, next)
		node = next
	}
}

// children lists the direct children of parent among the run's generations.
func (r *Run) children(ctx context.Context, loa schema.LOA, tv schema.TV, parent string) ([]string, error) {
	tables := r.st.Tables()
	return store.Column[string](ctx, r.st, "model_children", r.st.SQL().
		Select("node").Distinct().
		From(tables.Model()).
		Where(sq.Expr("generation_id IN (SELECT DISTINCT generation_id FROM "+tables.Register()+
			" WHERE LOWER(run) = LOWER(?) AND LOWER(loa) = LOWER(?))", r.ID, string(loa))).
		Where("parent = ?", parent).
		Where("LOWER(loa) = LOWER(?)", string(loa)).
		Where("LOWER(type_of_violence) = LOWER(?)", string(tv)).
		OrderBy("node"))
}
