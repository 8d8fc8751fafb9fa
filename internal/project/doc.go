// Package project is the data-access layer for projects and their tasks.
//
// The Manager sits between the view and a remote entity Service. Reads go
// through an in-memory cache: the first FetchProject for an ID calls the
// Service and stores the result, later calls are served from memory until
// ClearCache. Status updates are written through to the Service and then
// reconciled into the task cache by a MergePolicy. Task creation always goes
// to the Service and never touches the cache.
//
// Caching is controlled by a single switch:
//
//	mgr := project.NewManager(client,
//	    project.WithCache(cfg.Cache.Enabled),
//	    project.WithMergePolicy(project.MergeStatusOnly),
//	)
//	p, err := mgr.FetchProject(ctx, "42")
//
// Failures are reported as *FetchError, *UpdateError or *CreateError. Each
// wraps its cause, so errors.Is(err, project.ErrNotFound) works through them,
// and each matches its kind sentinel (ErrFetch, ErrUpdate, ErrCreate).
package project
