package mutation

import (
	"context"
	"errors"
	"fmt"

	"github.com/openboard-dev/openboard/pkg/authz"
	"github.com/openboard-dev/openboard/pkg/hierarchy"
	"github.com/openboard-dev/openboard/pkg/observability"
	"github.com/openboard-dev/openboard/pkg/revision"
)

// maxMutateAttempts bounds the optimistic retry loop. A conflict means a
// concurrent writer won the version race; the retry re-reads current state,
// so the losing change is re-applied on top rather than lost.
const maxMutateAttempts = 3

// Coordinator runs the write pipeline: resolve, authorize, validate, apply.
// All feature services share a single coordinator so every write is checked
// and versioned the same way.
type Coordinator struct {
	resolver   *hierarchy.Resolver
	authorizer *authz.Authorizer
	store      Store
	logger     *observability.Logger
	metrics    *observability.Metrics
}

// NewCoordinator creates a coordinator. metrics may be nil.
func NewCoordinator(resolver *hierarchy.Resolver, authorizer *authz.Authorizer, store Store, logger *observability.Logger, metrics *observability.Metrics) *Coordinator {
	return &Coordinator{
		resolver:   resolver,
		authorizer: authorizer,
		store:      store,
		logger:     logger,
		metrics:    metrics,
	}
}

// Mutate performs a create (req.ResourceID == 0) or an update. On success the
// live resource and its new revision have committed atomically.
func (c *Coordinator) Mutate(ctx context.Context, actorID int64, req Request) (*Result, error) {
	if req.ResourceID == 0 {
		return c.create(ctx, actorID, req)
	}
	return c.update(ctx, actorID, req)
}

func (c *Coordinator) create(ctx context.Context, actorID int64, req Request) (*Result, error) {
	// The chain is resolved from the declared parent; the new resource does
	// not exist yet.
	parentChain, err := c.resolver.ResolveChainByID(ctx, req.ParentID)
	if err != nil {
		return nil, err
	}

	decision, err := c.authorizer.Authorize(ctx, actorID, parentChain, req.Action)
	if err != nil {
		return nil, err
	}
	c.observeDecision(req.Action, decision)
	if !decision.Allowed {
		return nil, &AccessDeniedError{Decision: decision}
	}

	if req.Validate != nil {
		if err := req.Validate(ctx, parentChain, req.Change); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidChange, err)
		}
	}

	parentID := req.ParentID
	res := &hierarchy.Resource{
		Type:        req.Type,
		ParentID:    &parentID,
		WorkspaceID: parentChain.Workspace().ID,
		AuthorID:    actorID,
	}
	req.Change.Apply(res)

	rev, err := c.store.CreateWithRevision(ctx, res, actorID)
	if err != nil {
		return nil, err
	}

	c.observeWrite(req.Type, "create")
	c.logger.WithFields(map[string]interface{}{
		"actor_id":    actorID,
		"resource_id": res.ID,
		"type":        string(req.Type),
		"version":     rev.Version,
	}).Info("resource created")

	return &Result{Resource: res, Revision: rev}, nil
}

func (c *Coordinator) update(ctx context.Context, actorID int64, req Request) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt < maxMutateAttempts; attempt++ {
		result, err := c.updateOnce(ctx, actorID, req)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, revision.ErrConflict) {
			return nil, err
		}
		// Another writer claimed the version. The cached chain may be stale,
		// so drop it before the re-read.
		c.resolver.Invalidate(req.ResourceID)
		c.observeConflict(req.Type)
		lastErr = err
	}
	return nil, lastErr
}

func (c *Coordinator) updateOnce(ctx context.Context, actorID int64, req Request) (*Result, error) {
	chain, err := c.resolver.ResolveChain(ctx, req.Type, req.ResourceID)
	if err != nil {
		return nil, err
	}

	decision, err := c.authorizer.Authorize(ctx, actorID, chain, req.Action)
	if err != nil {
		return nil, err
	}
	c.observeDecision(req.Action, decision)
	if !decision.Allowed {
		return nil, &AccessDeniedError{Decision: decision}
	}

	if req.Validate != nil {
		if err := req.Validate(ctx, chain, req.Change); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidChange, err)
		}
	}

	res, rev, err := c.store.UpdateWithRevision(ctx, req.ResourceID, req.Change.Apply, actorID)
	if err != nil {
		return nil, err
	}
	c.resolver.Invalidate(req.ResourceID)

	c.observeWrite(req.Type, "update")
	c.logger.WithFields(map[string]interface{}{
		"actor_id":    actorID,
		"resource_id": res.ID,
		"type":        string(req.Type),
		"version":     rev.Version,
	}).Info("resource updated")

	return &Result{Resource: res, Revision: rev}, nil
}

// Move re-parents a resource, possibly across workspaces. The actor must be
// allowed on both the source chain and the destination chain; a partial
// allowance denies and writes nothing.
func (c *Coordinator) Move(ctx context.Context, actorID int64, req MoveRequest) (*Result, error) {
	src, err := c.resolver.ResolveChain(ctx, req.Type, req.ResourceID)
	if err != nil {
		return nil, err
	}
	dst, err := c.resolver.ResolveChainByID(ctx, req.DestParentID)
	if err != nil {
		return nil, err
	}

	decision, err := c.authorizer.AuthorizeMove(ctx, actorID, src, dst, req.Action)
	if err != nil {
		return nil, err
	}
	c.observeDecision(req.Action, decision)
	if !decision.Allowed {
		return nil, &AccessDeniedError{Decision: decision}
	}

	if req.Validate != nil {
		if err := req.Validate(ctx, dst, ChangeSet{}); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidChange, err)
		}
	}

	res, rev, err := c.store.MoveWithRevision(ctx, req.ResourceID, req.DestParentID, actorID)
	if err != nil {
		return nil, err
	}
	// Every descendant's chain changed and the cache cannot enumerate them.
	c.resolver.Reset()

	c.observeWrite(req.Type, "move")
	c.logger.WithFields(map[string]interface{}{
		"actor_id":    actorID,
		"resource_id": res.ID,
		"type":        string(req.Type),
		"dest_parent": req.DestParentID,
		"version":     rev.Version,
	}).Info("resource moved")

	return &Result{Resource: res, Revision: rev}, nil
}

// Delete removes a resource after authorization. Revision history for the
// deleted resource is retained.
func (c *Coordinator) Delete(ctx context.Context, actorID int64, typ hierarchy.ResourceType, resourceID int64, action authz.Action) error {
	chain, err := c.resolver.ResolveChain(ctx, typ, resourceID)
	if err != nil {
		return err
	}

	decision, err := c.authorizer.Authorize(ctx, actorID, chain, action)
	if err != nil {
		return err
	}
	c.observeDecision(action, decision)
	if !decision.Allowed {
		return &AccessDeniedError{Decision: decision}
	}

	if err := c.store.Delete(ctx, resourceID); err != nil {
		return err
	}
	// Descendants of the deleted resource are gone too.
	c.resolver.Reset()

	c.observeWrite(typ, "delete")
	c.logger.WithFields(map[string]interface{}{
		"actor_id":    actorID,
		"resource_id": resourceID,
		"type":        string(typ),
	}).Info("resource deleted")

	return nil
}

// Read resolves the chain and checks read access, returning the leaf. Used by
// feature services for GET endpoints and as the access gate for history
// listings.
func (c *Coordinator) Read(ctx context.Context, actorID int64, typ hierarchy.ResourceType, resourceID int64, action authz.Action) (*hierarchy.Resource, error) {
	chain, err := c.resolver.ResolveChain(ctx, typ, resourceID)
	if err != nil {
		return nil, err
	}

	decision, err := c.authorizer.Authorize(ctx, actorID, chain, action)
	if err != nil {
		return nil, err
	}
	c.observeDecision(action, decision)
	if !decision.Allowed {
		return nil, &AccessDeniedError{Decision: decision}
	}
	return chain.Leaf(), nil
}

func (c *Coordinator) observeDecision(action authz.Action, d authz.Decision) {
	if c.metrics != nil {
		c.metrics.RecordAuthzDecision(string(action), d.Outcome())
	}
	if !d.Allowed {
		c.logger.WithFields(map[string]interface{}{
			"action":   string(action),
			"decision": d.String(),
		}).Warn("access denied")
	}
}

func (c *Coordinator) observeWrite(typ hierarchy.ResourceType, op string) {
	if c.metrics != nil {
		c.metrics.RecordRevisionWrite(string(typ), op)
	}
}

func (c *Coordinator) observeConflict(typ hierarchy.ResourceType) {
	if c.metrics != nil {
		c.metrics.RecordMutationConflict(string(typ))
	}
}
