package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"camwatch/internal/domain"
	"camwatch/internal/privacy"
)

// publicLocator resolves what a viewer may see of a subject's location, reusing the cached
// fuzzed point for the viewer's role.
type publicLocator struct {
	privacy *privacy.Manager
	cache   LocationCache
	logger  *slog.Logger
}

func (p publicLocator) resolve(ctx context.Context, id uuid.UUID, subject domain.Subject, viewer domain.Viewer) (domain.Location, bool) {
	if p.privacy.CanViewPrecise(viewer, subject) {
		return subject.TrueLocation(), true
	}

	loc, ok, err := p.cache.Get(ctx, id, viewer.Role)
	if err != nil {
		p.logger.Warn("location cache read failed", slog.String("subject_id", id.String()), slog.Any("error", err))
	}
	if ok {
		return loc, false
	}

	loc = p.privacy.ResolvePublicLocation(subject, viewer)
	if err := p.cache.Set(ctx, id, viewer.Role, loc); err != nil {
		p.logger.Warn("location cache write failed", slog.String("subject_id", id.String()), slog.Any("error", err))
	}
	return loc, false
}

func (p publicLocator) forget(ctx context.Context, id uuid.UUID) {
	if err := p.cache.Forget(ctx, id); err != nil {
		p.logger.Warn("location cache invalidation failed", slog.String("subject_id", id.String()), slog.Any("error", err))
	}
}
