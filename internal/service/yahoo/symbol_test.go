package yahoo

import (
	"reflect"
	"testing"
)

func TestBuildSymbolCandidatesKeepsCallerCase(t *testing.T) {
	got := BuildSymbolCandidates(" aapl ")
	want := []string{"aapl", "AAPL.T"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected candidates %v", got)
	}
}

func TestBuildSymbolCandidatesJPCode(t *testing.T) {
	got := BuildSymbolCandidates("7203")
	want := []string{"7203", "7203.T"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected candidates %v", got)
	}
}

func TestBuildSymbolCandidatesSuffixed(t *testing.T) {
	got := BuildSymbolCandidates("7203.T")
	want := []string{"7203.T"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected candidates %v", got)
	}
}

func TestBuildSymbolCandidatesIndex(t *testing.T) {
	got := BuildSymbolCandidates("^N225")
	want := []string{"^N225"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected candidates %v", got)
	}
}

func TestBuildSymbolCandidatesEmpty(t *testing.T) {
	if got := BuildSymbolCandidates("   "); len(got) != 0 {
		t.Fatalf("expected empty, got %v", got)
	}
}
