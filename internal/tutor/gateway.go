package tutor

import (
	"context"

	"github.com/google/uuid"
	"github.com/jlpt-tutor/tutor-service/internal/apperr"
	"github.com/jlpt-tutor/tutor-service/internal/logger"
	"github.com/jlpt-tutor/tutor-service/internal/store"
	"github.com/jlpt-tutor/tutor-service/internal/tutor/ollamaclient"
	"golang.org/x/sync/errgroup"
)

const (
	recentItemCount  = 10
	weakestCardCount = 5
)

// Gateway assembles prompt context from the Store and relays a local
// LLM's token stream to callers. It is architecturally forbidden from
// writing to any table: every store call it makes is a read.
type Gateway struct {
	store  *store.Store
	client *ollamaclient.Client
	log    *logger.Logger
}

func New(st *store.Store, client *ollamaclient.Client, baseLog *logger.Logger) *Gateway {
	return &Gateway{store: st, client: client, log: baseLog.With("component", "TutorGateway")}
}

// StreamEvent is one item on the channel Stream returns: either a token
// or a terminal error. Completion is signalled by the channel closing,
// not by an event; callers range the channel until it closes and check
// Err on each received event.
type StreamEvent struct {
	Token string
	Err   error
}

// Stream assembles the system prompt from live context, opens the
// upstream generation call, and relays tokens on the returned channel.
// The channel is closed when the stream ends, whether by completion,
// upstream failure, or ctx cancellation. streamID is returned
// immediately for log correlation before the first token arrives.
func (g *Gateway) Stream(ctx context.Context, mode Mode, message string) (<-chan StreamEvent, uuid.UUID) {
	streamID := uuid.New()
	out := make(chan StreamEvent)
	streamLog := g.log.With("stream_id", streamID.String(), "mode", mode)

	go func() {
		defer close(out)

		if !mode.Valid() {
			out <- StreamEvent{Err: apperr.Validation("TutorGateway.Stream", "mode must be one of TEACH,QUIZ,EXPLAIN,CORRECT,CHAT")}
			return
		}

		ctxData, err := g.assembleContext(ctx)
		if err != nil {
			streamLog.Warn("context assembly failed", "error", err)
			out <- StreamEvent{Err: err}
			return
		}

		system := BuildSystemPrompt(mode, message, ctxData)

		err = g.client.StreamGenerate(ctx, system, message, func(token string) error {
			select {
			case out <- StreamEvent{Token: token}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil && ctx.Err() == nil {
			streamLog.Warn("upstream stream ended with error", "error", err)
			out <- StreamEvent{Err: err}
		}
	}()

	return out, streamID
}

// assembleContext issues the three reads the system prompt needs
// concurrently, merging them with errgroup instead of a hand-rolled
// WaitGroup.
func (g *Gateway) assembleContext(ctx context.Context) (contextData, error) {
	var focus string
	var recentItems []store.RecentReviewItem
	var weakestCards []store.ResolvedCard

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		focus, err = g.store.GetMeta(gctx, store.MetaKeyJLPTFocus)
		return err
	})
	group.Go(func() error {
		var err error
		recentItems, err = g.store.ListRecentReviewItems(gctx, recentItemCount)
		return err
	})
	group.Go(func() error {
		var err error
		weakestCards, err = g.store.ListWeakestCards(gctx, weakestCardCount)
		return err
	})
	if err := group.Wait(); err != nil {
		return contextData{}, err
	}

	recentSurfaces := make([]string, 0, len(recentItems))
	for _, item := range recentItems {
		recentSurfaces = append(recentSurfaces, item.Surface)
	}
	weakestSurfaces := make([]string, 0, len(weakestCards))
	for _, card := range weakestCards {
		if card.MemoryCard.ItemKind == store.ItemKindKanji {
			weakestSurfaces = append(weakestSurfaces, card.Character)
		} else {
			weakestSurfaces = append(weakestSurfaces, card.Surface)
		}
	}

	return contextData{
		focus:        store.Level(focus),
		recentItems:  recentSurfaces,
		weakestItems: weakestSurfaces,
	}, nil
}
