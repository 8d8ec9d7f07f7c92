package artifacts

import (
	"context"
	"testing"
)

func TestTags_Empty(t *testing.T) {
	if !(Tags{}).Empty() {
		t.Error("zero Tags should be empty")
	}
	if (Tags{Subtitle: "subs"}).Empty() {
		t.Error("stream-level fields must count as content")
	}
	if (Tags{Title: "x"}).Empty() {
		t.Error("container-level fields must count as content")
	}
}

func TestTagger_DisabledSkipsTagging(t *testing.T) {
	tagger := newTagger("", "", 1)

	if tagger.Enabled() {
		t.Fatal("tagger without ffmpeg must report disabled")
	}
	if err := tagger.Tag(context.Background(), "in.mkv", "out.mkv", Tags{Title: "x"}); err != nil {
		t.Errorf("disabled Tag must be a no-op, got %v", err)
	}
}

func TestTagger_DisabledRejectsFrameExtraction(t *testing.T) {
	tagger := newTagger("", "", 1)

	if err := tagger.ExtractFrame(context.Background(), "in.mkv", "thumb.jpg"); err == nil {
		t.Error("ExtractFrame without ffmpeg must fail so callers skip the thumbnail")
	}
	if _, err := tagger.Duration(context.Background(), "in.mkv"); err == nil {
		t.Error("Duration without ffprobe must fail")
	}
}

func TestTagAll_DisabledKeepsInputPaths(t *testing.T) {
	tagger := newTagger("", "", 2)

	results := tagger.TagAll(context.Background(), map[string]string{
		"a.mkv": "a.tagged.mkv",
		"b.mkv": "b.tagged.mkv",
	}, Tags{Title: "x"})

	if results["a.mkv"] != "a.mkv" || results["b.mkv"] != "b.mkv" {
		t.Errorf("disabled tagger must keep inputs, got %v", results)
	}
}
