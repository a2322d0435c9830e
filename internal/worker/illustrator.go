package worker

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/brancaskitchen/office-rpg/internal/services"
	"github.com/brancaskitchen/office-rpg/internal/services/queue"
	"github.com/brancaskitchen/office-rpg/internal/storage"
)

// dequeueWait is how long one poll blocks before re-checking shutdown.
const dequeueWait = 5 * time.Second

// Illustrator consumes illustration jobs and attaches generated image
// URLs to sessions. Jobs carry the session epoch they were created from;
// results for sessions that have since been undone or reset are dropped.
type Illustrator struct {
	storage storage.Storage
	images  services.ImageService
	icons   *services.IconCache
	queue   *queue.IllustrationQueue
	logger  *slog.Logger
}

// NewIllustrator creates an illustration worker. Item icons are memoized
// by name, so the same item dropped in many sessions is generated once.
func NewIllustrator(store storage.Storage, images services.ImageService, q *queue.IllustrationQueue, logger *slog.Logger) *Illustrator {
	return &Illustrator{
		storage: store,
		images:  images,
		icons:   services.NewIconCache(images),
		queue:   q,
		logger:  logger,
	}
}

// Run processes jobs until the context is cancelled.
func (il *Illustrator) Run(ctx context.Context) error {
	il.logger.Info("Illustrator started")
	for {
		select {
		case <-ctx.Done():
			il.logger.Info("Illustrator stopping")
			return ctx.Err()
		default:
		}

		job, err := il.queue.Dequeue(ctx, dequeueWait)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			il.logger.Error("Failed to dequeue illustration job", "error", err)
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		il.process(ctx, job)
	}
}

func (il *Illustrator) process(ctx context.Context, job *queue.Job) {
	log := il.logger.With("session_id", job.SessionID.String(), "kind", job.Kind)

	var url string
	var err error
	if job.Kind == queue.JobIcon {
		url, err = il.icons.GetOrGenerate(ctx, job.ItemName)
	} else {
		url, err = il.images.GenerateImage(ctx, job.Prompt)
	}
	if err != nil {
		log.Error("Illustration generation failed", "error", err)
		return
	}

	gs, err := il.storage.LoadSession(ctx, job.SessionID)
	if err != nil {
		log.Error("Failed to load session for illustration", "error", err)
		return
	}
	if gs == nil {
		log.Warn("Session gone before illustration landed")
		return
	}
	if gs.Epoch != job.Epoch {
		log.Info("Discarding stale illustration", "job_epoch", job.Epoch, "session_epoch", gs.Epoch)
		return
	}

	switch job.Kind {
	case queue.JobScene:
		gs.SceneImage = url
	case queue.JobProfile:
		if gs.Character == nil {
			log.Warn("No character to attach profile image")
			return
		}
		gs.Character.ProfileImage = url
	case queue.JobIcon:
		attached := false
		for i := range gs.Inventory {
			if strings.EqualFold(gs.Inventory[i].Name, job.ItemName) && gs.Inventory[i].IconURL == "" {
				gs.Inventory[i].IconURL = url
				attached = true
			}
		}
		if !attached {
			log.Debug("Item gone before icon landed", "item", job.ItemName)
			return
		}
	default:
		log.Warn("Unknown illustration job kind")
		return
	}

	if err := il.storage.SaveSession(ctx, gs.ID, gs); err != nil {
		log.Error("Failed to save session with illustration", "error", err)
		return
	}
	log.Debug("Illustration attached", "url", url)
}
