package orchestration

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/simoncragg/synth-gpt-sub000/core/chats"
)

// runWebActivity performs the search the model asked for, walking the
// activity through searching, readingResults and finished, each step posted
// to the client. The finished message joins the conversation together with a
// hidden function-result message carrying the serialized results back to the
// model. Provider failures are reported back to the model rather than
// aborting the turn.
func (t *assistantTurn) runWebActivity(ctx context.Context) (err error) {
	activity, _ := t.message.Content.Value.(chats.WebActivity)

	ctx, span := tracer.Start(ctx, "Run web activity",
		trace.WithAttributes(attribute.String("search.term", activity.SearchTerm)),
	)
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to run web activity")
		}
	}()

	activity.Actions = []chats.WebAction{{
		Type:       chats.WebActionTypeSearching,
		SearchTerm: activity.SearchTerm,
	}}
	if err := t.updateWebActivity(ctx, activity); err != nil {
		return err
	}

	results, searchErr := t.search(ctx, activity.SearchTerm)
	if searchErr != nil {
		logger.Warn("Web search failed", "error", searchErr, "searchTerm", activity.SearchTerm)
		activity.CurrentState = chats.ActivityStateFinished
		if err := t.updateWebActivity(ctx, activity); err != nil {
			return err
		}
		t.message.Timestamp = t.orchestrator.now().UnixMilli()
		t.chat.Messages = append(t.chat.Messages, *t.message)
		t.appendFunctionResult(toolPerformWebSearch,
			fmt.Sprintf("web search failed: %v", searchErr))
		return nil
	}

	activity.CurrentState = chats.ActivityStateReadingResults
	activity.Actions = append(activity.Actions, chats.WebAction{
		Type:    chats.WebActionTypeReadingResults,
		Results: results,
	})
	if err := t.updateWebActivity(ctx, activity); err != nil {
		return err
	}

	activity.CurrentState = chats.ActivityStateFinished
	if err := t.updateWebActivity(ctx, activity); err != nil {
		return err
	}
	t.message.Timestamp = t.orchestrator.now().UnixMilli()
	t.chat.Messages = append(t.chat.Messages, *t.message)

	serialized, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to serialize search results: %w", err)
	}
	t.appendFunctionResult(toolPerformWebSearch, string(serialized))
	return nil
}

func (t *assistantTurn) search(ctx context.Context, searchTerm string) ([]chats.WebSearchResult, error) {
	o := t.orchestrator
	if o.webSearch == nil {
		return nil, fmt.Errorf("web search is not available")
	}

	providerResults, err := o.webSearch.Search(ctx, searchTerm)
	if err != nil {
		return nil, err
	}

	results := make([]chats.WebSearchResult, 0, len(providerResults))
	for _, result := range providerResults {
		results = append(results, chats.WebSearchResult{
			Name:             result.Name,
			URL:              result.URL,
			IsFamilyFriendly: result.IsFamilyFriendly,
			Snippet:          result.Snippet,
		})
	}
	return results, nil
}

func (t *assistantTurn) updateWebActivity(ctx context.Context, activity chats.WebActivity) error {
	if err := t.foldActivity(chats.WebActivityContent(activity)); err != nil {
		return err
	}
	t.postSegment(ctx, *t.message, false)
	return nil
}
