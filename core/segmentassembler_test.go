package orchestration

import (
	"testing"
	"time"

	"github.com/simoncragg/synth-gpt-sub000/core/chats"
	"github.com/simoncragg/synth-gpt-sub000/core/llms"
	"github.com/simoncragg/synth-gpt-sub000/internal/utils"
)

func collectSegments(t *testing.T, deltas []llms.Delta) []messageSegment {
	t.Helper()
	var segments []messageSegment
	assembler := newSegmentAssembler(func(segment messageSegment) error {
		segments = append(segments, segment)
		return nil
	}, func() time.Time { return time.UnixMilli(1700000000000) })

	for _, delta := range deltas {
		if err := assembler.ProcessDelta(delta); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	return segments
}

func TestAssemblerFlushesTextOnNewline(t *testing.T) {
	segments := collectSegments(t, []llms.Delta{
		{Content: "The square "},
		{Content: "root of 144"},
		{Content: " is 12.\n"},
		{Content: "Easy."},
		{FinishReason: utils.Ptr(llms.FinishReasonStop)},
	})

	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if got := segments[0].Message.Content.Text(); got != "The square root of 144 is 12.\n" {
		t.Errorf("unexpected first segment %q", got)
	}
	if segments[0].IsLastSegment {
		t.Error("first segment must not be last")
	}
	if got := segments[1].Message.Content.Text(); got != "Easy." {
		t.Errorf("unexpected terminal segment %q", got)
	}
	if !segments[1].IsLastSegment || !segments[1].IsAuthoritative {
		t.Error("terminal segment must be last and authoritative")
	}
}

func TestAssemblerSegmentsShareOneMessageID(t *testing.T) {
	segments := collectSegments(t, []llms.Delta{
		{Content: "one\n"},
		{Content: "two\n"},
		{FinishReason: utils.Ptr(llms.FinishReasonStop)},
	})

	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	id := segments[0].Message.ID
	if id == "" {
		t.Fatal("expected a message id")
	}
	for _, segment := range segments[1:] {
		if segment.Message.ID != id {
			t.Fatalf("expected all segments to share id %q, got %q", id, segment.Message.ID)
		}
	}
}

func TestAssemblerReassemblesTextAcrossSegments(t *testing.T) {
	full := "line one\nline two\nline three"
	var deltas []llms.Delta
	for _, r := range full {
		deltas = append(deltas, llms.Delta{Content: string(r)})
	}
	deltas = append(deltas, llms.Delta{FinishReason: utils.Ptr(llms.FinishReasonStop)})

	var rebuilt string
	for _, segment := range collectSegments(t, deltas) {
		rebuilt += segment.Message.Content.Text()
	}
	if rebuilt != full {
		t.Fatalf("expected %q, got %q", full, rebuilt)
	}
}

func TestAssemblerAnnouncesWebSearchOnNameSight(t *testing.T) {
	segments := collectSegments(t, []llms.Delta{
		{FunctionCall: &llms.FunctionCallDelta{Name: "perform_web_search"}},
		{FunctionCall: &llms.FunctionCallDelta{Arguments: `{"search_`}},
		{FunctionCall: &llms.FunctionCallDelta{Arguments: `term": "metallica`}},
		{FunctionCall: &llms.FunctionCallDelta{Arguments: ` tour dates"}`}},
		{FinishReason: utils.Ptr(llms.FinishReasonFunctionCall)},
	})

	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}

	first, ok := segments[0].Message.Content.Value.(chats.WebActivity)
	if !ok {
		t.Fatalf("expected a web activity, got %T", segments[0].Message.Content.Value)
	}
	if segments[0].IsAuthoritative {
		t.Error("announcement segment must be provisional")
	}
	if first.SearchTerm != "" || first.CurrentState != chats.ActivityStateSearching {
		t.Errorf("unexpected announcement activity %+v", first)
	}

	terminal, ok := segments[1].Message.Content.Value.(chats.WebActivity)
	if !ok {
		t.Fatalf("expected a web activity, got %T", segments[1].Message.Content.Value)
	}
	if !segments[1].IsAuthoritative || !segments[1].IsLastSegment {
		t.Error("terminal segment must be authoritative and last")
	}
	if terminal.SearchTerm != "metallica tour dates" {
		t.Errorf("unexpected search term %q", terminal.SearchTerm)
	}
}

func TestAssemblerStreamsCodePreviews(t *testing.T) {
	segments := collectSegments(t, []llms.Delta{
		{FunctionCall: &llms.FunctionCallDelta{Name: "execute_python_code"}},
		{FunctionCall: &llms.FunctionCallDelta{Arguments: `{"code": "import math`}},
		{FunctionCall: &llms.FunctionCallDelta{Arguments: `\nresult = math.sqrt(144)"}`}},
		{FinishReason: utils.Ptr(llms.FinishReasonFunctionCall)},
	})

	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}

	preview, ok := segments[1].Message.Content.Value.(chats.CodingActivity)
	if !ok {
		t.Fatalf("expected a coding activity, got %T", segments[1].Message.Content.Value)
	}
	if segments[1].IsAuthoritative {
		t.Error("preview segment must be provisional")
	}
	if preview.Code != "import math\nresult = math.sqrt(144)" {
		t.Errorf("unexpected preview code %q", preview.Code)
	}
	if preview.CurrentState != chats.ActivityStateWorking {
		t.Errorf("unexpected preview state %q", preview.CurrentState)
	}

	terminal, ok := segments[2].Message.Content.Value.(chats.CodingActivity)
	if !ok {
		t.Fatalf("expected a coding activity, got %T", segments[2].Message.Content.Value)
	}
	if terminal.Code != "import math\nresult = math.sqrt(144)" {
		t.Errorf("unexpected terminal code %q", terminal.Code)
	}
	if !segments[2].IsAuthoritative {
		t.Error("terminal segment must be authoritative")
	}
}

func TestAssemblerRejectsUnknownTool(t *testing.T) {
	assembler := newSegmentAssembler(func(messageSegment) error { return nil }, time.Now)
	err := assembler.ProcessDelta(llms.Delta{
		FunctionCall: &llms.FunctionCallDelta{Name: "drop_all_tables"},
	})
	if err == nil {
		t.Fatal("expected unknown tool to be rejected")
	}
}

func TestCodeFromPartialArguments(t *testing.T) {
	for _, test := range []struct {
		name      string
		arguments string
		expected  string
	}{
		{"empty", "", ""},
		{"no code key", `{"search_term": "x"}`, ""},
		{"key only", `{"code"`, ""},
		{"open quote", `{"code": "`, ""},
		{"plain", `{"code": "result = 42`, "result = 42"},
		{"escapes", `{"code": "a\n\tb\"c\\d`, "a\n\tb\"c\\d"},
		{"trailing cut escape", `{"code": "line\`, "line"},
		{"closed string", `{"code": "done"}`, "done"},
	} {
		t.Run(test.name, func(t *testing.T) {
			if got := codeFromPartialArguments(test.arguments); got != test.expected {
				t.Fatalf("expected %q, got %q", test.expected, got)
			}
		})
	}
}
