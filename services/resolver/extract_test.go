package resolver

import "testing"

func TestExtractContainersNestedDiv(t *testing.T) {
	html := `<div data-lyrics-container="true">A<div>nested</div>B</div>`

	got := ExtractContainers(html)
	want := "A<div>nested</div>B"
	if got != want {
		t.Errorf("ExtractContainers() = %q, want %q", got, want)
	}
}

func TestExtractContainersDeepNesting(t *testing.T) {
	html := `<div class="x" data-lyrics-container="true">one<div class="a">two<div>three</div>four</div>five</div><div>outside</div>`

	got := ExtractContainers(html)
	want := `one<div class="a">two<div>three</div>four</div>five`
	if got != want {
		t.Errorf("ExtractContainers() = %q, want %q", got, want)
	}
}

func TestExtractContainersOtherTagsSkipped(t *testing.T) {
	// Spans, anchors and line breaks inside the container must not
	// affect depth tracking
	html := `<div data-lyrics-container="true">Line one<br/><span class="s">styled</span><a href="/x">link</a>Line two</div>`

	got := ExtractContainers(html)
	want := `Line one<br/><span class="s">styled</span><a href="/x">link</a>Line two`
	if got != want {
		t.Errorf("ExtractContainers() = %q, want %q", got, want)
	}
}

func TestExtractContainersMultipleConcatenated(t *testing.T) {
	html := `<html><body>` +
		`<div data-lyrics-container="true">[Verse 1]<br>first</div>` +
		`<p>interlude markup</p>` +
		`<div data-lyrics-container="true">[Chorus]<br>second</div>` +
		`</body></html>`

	got := ExtractContainers(html)
	// Document order, no separator beyond the blocks' own content
	want := "[Verse 1]<br>first[Chorus]<br>second"
	if got != want {
		t.Errorf("ExtractContainers() = %q, want %q", got, want)
	}
}

func TestExtractContainersUnbalancedAbandoned(t *testing.T) {
	// Opening tag with no matching close before EOF: emit nothing for it
	html := `<div data-lyrics-container="true">abandoned<div>still open`

	if got := ExtractContainers(html); got != "" {
		t.Errorf("Expected empty result for unbalanced container, got %q", got)
	}
}

func TestExtractContainersUnbalancedPlusBalanced(t *testing.T) {
	html := `<div data-lyrics-container="true">kept</div>` +
		`<div data-lyrics-container="true">dropped<div>open`

	if got := ExtractContainers(html); got != "kept" {
		t.Errorf("Expected only the balanced container, got %q", got)
	}
}

func TestExtractContainersNoneFound(t *testing.T) {
	html := `<html><body><div class="lyrics">not a marked container</div></body></html>`

	if got := ExtractContainers(html); got != "" {
		t.Errorf("Expected empty result when no container attribute present, got %q", got)
	}
}

func TestExtractContainersEmptyDocument(t *testing.T) {
	if got := ExtractContainers(""); got != "" {
		t.Errorf("Expected empty result for empty document, got %q", got)
	}
}
