package widget

import "testing"

func TestTranscriptKeepsInsertionOrder(t *testing.T) {
	transcript := NewTranscript()
	if !transcript.IsEmpty() {
		t.Fatal("new transcript must be empty")
	}

	transcript.Append(AssistantTurn("hi"))
	transcript.Append(UserTurn("hello"))
	transcript.Append(AssistantTurn("Hi there!"))

	var got []Turn
	for turn := range transcript.All() {
		got = append(got, turn)
	}

	want := []Turn{
		{Role: RoleAssistant, Text: "hi"},
		{Role: RoleUser, Text: "hello"},
		{Role: RoleAssistant, Text: "Hi there!"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d turns, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("turn %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestTranscriptTurnsIsACopy(t *testing.T) {
	transcript := NewTranscript()
	transcript.Append(UserTurn("one"))

	turns := transcript.Turns()
	turns[0].Text = "changed"

	if transcript.Turns()[0].Text != "one" {
		t.Fatal("mutating the returned slice must not edit the transcript")
	}
}

func TestTranscriptAllStopsEarly(t *testing.T) {
	transcript := NewTranscript()
	transcript.Append(UserTurn("a"))
	transcript.Append(UserTurn("b"))

	visited := 0
	for range transcript.All() {
		visited++
		break
	}
	if visited != 1 {
		t.Fatalf("expected iteration to stop after one turn, visited %d", visited)
	}
}
