package project

import "fmt"

// MergePolicy reconciles a cached task with the result of a successful
// status update. cached and ok describe the current cache entry; requested
// is the status the caller asked for; server is the Service's response.
// The returned task replaces the cache entry.
type MergePolicy interface {
	Name() string
	Merge(cached Task, ok bool, requested Status, server Task) Task
}

// MergeFunc adapts a function to a MergePolicy.
type MergeFunc struct {
	Label string
	Fn    func(cached Task, ok bool, requested Status, server Task) Task
}

func (f MergeFunc) Name() string { return f.Label }

func (f MergeFunc) Merge(cached Task, ok bool, requested Status, server Task) Task {
	return f.Fn(cached, ok, requested, server)
}

// MergeStatusOnly keeps the cached task and overwrites only its status with
// the requested one. Without a cache entry the server task is stored as is.
var MergeStatusOnly MergePolicy = MergeFunc{
	Label: "status_only",
	Fn: func(cached Task, ok bool, requested Status, server Task) Task {
		if !ok {
			return server
		}
		cached.Status = requested
		return cached
	},
}

// ReplaceWithResponse always stores the server task.
var ReplaceWithResponse MergePolicy = MergeFunc{
	Label: "replace",
	Fn: func(_ Task, _ bool, _ Status, server Task) Task {
		return server
	},
}

// MergePolicyByName resolves a configured policy name.
func MergePolicyByName(name string) (MergePolicy, error) {
	switch name {
	case "", MergeStatusOnly.Name():
		return MergeStatusOnly, nil
	case ReplaceWithResponse.Name():
		return ReplaceWithResponse, nil
	default:
		return nil, fmt.Errorf("unknown merge policy %q", name)
	}
}
