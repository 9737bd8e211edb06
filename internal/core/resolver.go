package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"pkgsmith/internal/ports"
	"pkgsmith/internal/shared"
	"pkgsmith/internal/types"
)

// ResolveRequest names the package an operation was asked to process.
// Version is an exact version string or empty for the latest entry.
type ResolveRequest struct {
	Name    string
	Version string
	Force   bool
}

type Resolver struct {
	Repo ports.RepositoryPort
}

func NewResolver(repo ports.RepositoryPort) Resolver {
	return Resolver{Repo: repo}
}

// dfs colors: unvisited nodes are absent from marks.
type mark int

const (
	markInProgress mark = iota + 1
	markDone
)

type resolveSession struct {
	repo      ports.RepositoryPort
	installed map[string]types.InstalledRecord
	force     bool

	nodes []types.PlanNode
	index map[string]int
	marks map[string]mark
	stack []string
}

// Resolve builds the install plan for a request by depth-first traversal
// of the dependency graph. Runtime and build dependencies are both full
// edges. The returned plan is a valid topological order; ties among
// independent nodes break by first-discovery order, so identical inputs
// always produce identical plans.
func (r Resolver) Resolve(ctx context.Context, req ResolveRequest, installed map[string]types.InstalledRecord) (types.Plan, error) {
	if r.Repo == nil {
		return types.Plan{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("resolver requires a repository port")
	}
	if strings.TrimSpace(req.Name) == "" {
		return types.Plan{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package name is required")
	}
	session := &resolveSession{
		repo:      r.Repo,
		installed: installed,
		force:     req.Force,
		index:     map[string]int{},
		marks:     map[string]mark{},
	}
	if _, err := session.visit(req.Name, req.Version, ""); err != nil {
		return types.Plan{}, err
	}
	session.linkDependents()

	plan := types.Plan{Nodes: session.nodes}
	log.Ctx(ctx).Debug().
		Str("package", req.Name).
		Int("nodes", len(plan.Nodes)).
		Msg("resolution completed")
	return plan, nil
}

// visit resolves one package reference and, recursively, everything it
// depends on. It returns the arena index of the resolved node.
func (s *resolveSession) visit(name string, constraint string, requester string) (int, error) {
	if s.marks[name] == markInProgress {
		return 0, s.cycleError(name)
	}
	if idx, ok := s.index[name]; ok {
		// Already resolved; an explicit constraint from another
		// dependent must agree with the chosen version.
		if constraint != "" && s.nodes[idx].Version != constraint {
			return 0, errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg(fmt.Sprintf(
					"version conflict for %s: %s requires %s but %s is already selected",
					name, requesterLabel(requester), constraint, s.nodes[idx].Version))
		}
		return idx, nil
	}

	if _, err := s.repo.Find(name); err != nil {
		return 0, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("package not found: %s (required by %s)", name, requesterLabel(requester))).
			WithCause(err)
	}
	entry, err := s.repo.ResolveVersion(name, constraint)
	if err != nil {
		return 0, err
	}

	s.marks[name] = markInProgress
	s.stack = append(s.stack, name)

	var deps []int
	for _, ref := range entry.AllDependencies() {
		depName, depVersion := shared.SplitNameVersion(ref)
		idx, err := s.visit(depName, depVersion, shared.JoinNameVersion(name, entry.Version))
		if err != nil {
			return 0, err
		}
		deps = append(deps, idx)
	}

	s.stack = s.stack[:len(s.stack)-1]
	s.marks[name] = markDone

	state := types.NodeStatePending
	if rec, ok := s.installed[name]; ok && rec.Version == entry.Version && !s.force {
		state = types.NodeStateSkipped
	}
	s.nodes = append(s.nodes, types.PlanNode{
		Name:    name,
		Version: entry.Version,
		Entry:   entry,
		State:   state,
		Deps:    deps,
	})
	idx := len(s.nodes) - 1
	s.index[name] = idx
	return idx, nil
}

// cycleError reports the cycle path from the first occurrence of name on
// the traversal stack back to name.
func (s *resolveSession) cycleError(name string) error {
	start := 0
	for i, member := range s.stack {
		if member == name {
			start = i
			break
		}
	}
	path := append(append([]string{}, s.stack[start:]...), name)
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(fmt.Sprintf("dependency cycle detected: %s", strings.Join(path, " -> ")))
}

func (s *resolveSession) linkDependents() {
	for i := range s.nodes {
		for _, dep := range s.nodes[i].Deps {
			s.nodes[dep].Dependents = append(s.nodes[dep].Dependents, i)
		}
	}
}

func requesterLabel(requester string) string {
	if requester == "" {
		return "the install request"
	}
	return requester
}
