package middleware

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/agentcore/runtime/pkg/provider"
	"github.com/agentcore/runtime/pkg/provider/types"
)

// ExtractReasoningOptions configures ExtractReasoningMiddleware.
type ExtractReasoningOptions struct {
	// TagName names the XML-style tag wrapping reasoning content, e.g.
	// "think" or "reasoning".
	TagName string

	// Separator joins surviving text fragments once a reasoning block is
	// cut out. Defaults to "\n".
	Separator string

	// StartWithReasoning treats the model's output as beginning mid-tag,
	// for providers that open the reasoning block implicitly.
	StartWithReasoning bool
}

func resolveReasoningOptions(options *ExtractReasoningOptions) ExtractReasoningOptions {
	resolved := ExtractReasoningOptions{TagName: "think", Separator: "\n"}
	if options == nil {
		return resolved
	}
	resolved = *options
	if resolved.Separator == "" {
		resolved.Separator = "\n"
	}
	return resolved
}

// ExtractReasoningMiddleware pulls <TagName>...</TagName> reasoning blocks
// out of a model's raw text output. In non-streaming generation the tagged
// spans are stripped from the text (the Go result type has no separate
// reasoning field yet); in streaming, each span is instead re-emitted as its
// own provider.ChunkTypeReasoning chunk so a caller can render it apart from
// the answer as it arrives.
func ExtractReasoningMiddleware(options *ExtractReasoningOptions) *LanguageModelMiddleware {
	opts := resolveReasoningOptions(options)
	openTag := fmt.Sprintf("<%s>", opts.TagName)
	closeTag := fmt.Sprintf("</%s>", opts.TagName)
	blockPattern := regexp.MustCompile(fmt.Sprintf(`%s(.*?)%s`, regexp.QuoteMeta(openTag), regexp.QuoteMeta(closeTag)))

	return &LanguageModelMiddleware{
		SpecificationVersion: "v3",

		WrapGenerate: func(
			ctx context.Context,
			doGenerate func() (*types.GenerateResult, error),
			doStream func() (provider.TextStream, error),
			params *provider.GenerateOptions,
			model provider.LanguageModel,
		) (*types.GenerateResult, error) {
			result, err := doGenerate()
			if err != nil {
				return nil, err
			}

			text := result.Text
			if opts.StartWithReasoning {
				text = openTag + text
			}

			blocks := blockPattern.FindAllString(text, -1)
			if len(blocks) == 0 {
				return result, nil
			}

			remaining := text
			for i := len(blocks) - 1; i >= 0; i-- {
				block := blocks[i]
				at := strings.Index(remaining, block)
				if at == -1 {
					continue
				}
				before, after := remaining[:at], remaining[at+len(block):]
				sep := ""
				if len(before) > 0 && len(after) > 0 {
					sep = opts.Separator
				}
				remaining = before + sep + after
			}

			result.Text = remaining
			return result, nil
		},

		WrapStream: func(
			ctx context.Context,
			doGenerate func() (*types.GenerateResult, error),
			doStream func() (provider.TextStream, error),
			params *provider.GenerateOptions,
			model provider.LanguageModel,
		) (provider.TextStream, error) {
			stream, err := doStream()
			if err != nil {
				return nil, err
			}

			return &taggedReasoningStream{
				underlying:  stream,
				openTag:     openTag,
				closeTag:    closeTag,
				inReasoning: opts.StartWithReasoning,
			}, nil
		},
	}
}

// taggedReasoningStream re-tags a raw TextStream's chunks: text inside
// openTag/closeTag becomes ChunkTypeReasoning, everything else stays
// ChunkTypeText. It buffers across Next() calls because a tag can arrive
// split across chunk boundaries.
type taggedReasoningStream struct {
	underlying  provider.TextStream
	openTag     string
	closeTag    string
	inReasoning bool
	buffer      string
}

func (s *taggedReasoningStream) Next() (*provider.StreamChunk, error) {
	for {
		chunk, err := s.underlying.Next()
		if err != nil {
			if err == io.EOF && len(s.buffer) > 0 {
				if flushed := s.emit(s.buffer); flushed != nil {
					s.buffer = ""
					return flushed, nil
				}
			}
			return chunk, err
		}

		if chunk.Type != provider.ChunkTypeText {
			return chunk, nil
		}

		s.buffer += chunk.Text

		for {
			wantTag := s.closeTag
			if !s.inReasoning {
				wantTag = s.openTag
			}

			at := tagBoundary(s.buffer, wantTag)
			if at == -1 {
				if len(s.buffer) > 0 {
					out := s.emit(s.buffer)
					s.buffer = ""
					if out != nil {
						return out, nil
					}
				}
				break
			}

			if at > 0 {
				before := s.buffer[:at]
				s.buffer = s.buffer[at:]
				if out := s.emit(before); out != nil {
					return out, nil
				}
			}

			if at+len(wantTag) > len(s.buffer) {
				// wantTag only partially buffered so far; wait for more input.
				break
			}
			s.buffer = s.buffer[len(wantTag):]
			s.inReasoning = !s.inReasoning
		}
	}
}

// emit wraps text in the chunk type matching the stream's current mode, or
// returns nil for an empty fragment (nothing to publish).
func (s *taggedReasoningStream) emit(text string) *provider.StreamChunk {
	if len(text) == 0 {
		return nil
	}
	if s.inReasoning {
		return &provider.StreamChunk{Type: provider.ChunkTypeReasoning, Reasoning: text}
	}
	return &provider.StreamChunk{Type: provider.ChunkTypeText, Text: text}
}

func (s *taggedReasoningStream) Read(p []byte) (int, error) { return s.underlying.Read(p) }
func (s *taggedReasoningStream) Close() error                { return s.underlying.Close() }
func (s *taggedReasoningStream) Err() error                  { return s.underlying.Err() }

// tagBoundary returns the earliest index in text where tag either fully
// matches or could match once more input arrives (a suffix of text equal to
// a prefix of tag), so the caller knows how much to hold back. Returns -1
// when tag cannot start anywhere in text.
func tagBoundary(text, tag string) int {
	if len(tag) == 0 {
		return -1
	}
	if idx := strings.Index(text, tag); idx != -1 {
		return idx
	}
	for i := len(text) - 1; i >= 0; i-- {
		if strings.HasPrefix(tag, text[i:]) {
			return i
		}
	}
	return -1
}
