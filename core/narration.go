package orchestration

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/simoncragg/synth-gpt-sub000/core/transport"
)

var (
	singleLineCodeBlockPattern = regexp.MustCompile("(?s)```.*?```")
	markdownImagePattern       = regexp.MustCompile(`!\[.*?\]\(.*?\)`)
)

// narrationGate decides which text segments get spoken and runs the speech
// pipeline for them. Segments inside a fenced code block are never narrated;
// inline code spans and markdown images are stripped before synthesis.
//
// Synthesis runs in the background so narration never stalls the text
// stream. Clips can therefore finish out of order; each audio event carries
// the timestamp of its source segment as the client ordering key.
type narrationGate struct {
	orchestrator *Orchestrator
	conn         transport.Connection
	chatID       string

	insideCodeBlock bool
	pending         sync.WaitGroup
}

func newNarrationGate(o *Orchestrator, conn transport.Connection, chatID string) *narrationGate {
	return &narrationGate{
		orchestrator: o,
		conn:         conn,
		chatID:       chatID,
	}
}

func (g *narrationGate) Process(ctx context.Context, text string) {
	if isCodeBoundary(text) {
		g.insideCodeBlock = !g.insideCodeBlock
		return
	}
	if g.insideCodeBlock {
		return
	}

	o := g.orchestrator
	if o.synthesizer == nil || o.audioStore == nil {
		return
	}

	transcript := singleLineCodeBlockPattern.ReplaceAllString(text, "")
	transcript = markdownImagePattern.ReplaceAllString(transcript, "")
	if strings.TrimSpace(transcript) == "" {
		return
	}

	// The ordering key is fixed now, while segments are still in order.
	timestamp := o.now().UnixMilli()

	g.pending.Add(1)
	go func() {
		defer g.pending.Done()
		g.narrate(ctx, transcript, timestamp)
	}()
}

// Wait blocks until every in-flight narration has finished or failed.
func (g *narrationGate) Wait() {
	g.pending.Wait()
}

func (g *narrationGate) narrate(ctx context.Context, transcript string, timestamp int64) {
	o := g.orchestrator

	audio, err := o.synthesizer.Synthesize(ctx, transcript)
	if err != nil {
		// A failed clip silences one segment, the turn carries on.
		logger.Warn("Failed to synthesize narration segment", "error", err)
		return
	}

	audioURL, err := o.audioStore.Write(ctx, "narration-"+uuid.NewString()+".mp3", audio)
	if err != nil {
		logger.Warn("Failed to store narration segment", "error", err)
		return
	}

	err = g.conn.Post(ctx, transport.Event{
		Type: transport.EventAssistantAudioSegment,
		Payload: transport.AssistantAudioSegmentPayload{
			ChatID: g.chatID,
			AudioSegment: transport.AudioSegment{
				AudioURL:  audioURL,
				Timestamp: timestamp,
			},
		},
	})
	if err != nil {
		logger.Warn("Failed to post narration segment", "error", err)
	}
}

// isCodeBoundary reports whether the segment opens or closes a multi-line
// fenced code block. A fence that opens and closes within the segment is not
// a boundary.
func isCodeBoundary(text string) bool {
	return strings.Contains(text, "```") && !singleLineCodeBlockPattern.MatchString(text)
}
