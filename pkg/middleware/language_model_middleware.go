package middleware

import (
	"context"

	"github.com/agentcore/runtime/pkg/provider"
	"github.com/agentcore/runtime/pkg/provider/types"
)

// LanguageModelMiddleware is a set of optional hooks for intercepting a
// provider.LanguageModel's calls: rewriting the identity it reports,
// rewriting outbound GenerateOptions, or wrapping the generate/stream calls
// themselves. A middleware leaving a hook nil is a pass-through for that
// hook.
type LanguageModelMiddleware struct {
	// SpecificationVersion identifies the middleware hook contract this
	// value was built against; "v3" is the only version this package
	// implements.
	SpecificationVersion string

	OverrideProvider func(model provider.LanguageModel) string
	OverrideModelID  func(model provider.LanguageModel) string

	TransformParams func(ctx context.Context, callType string, params *provider.GenerateOptions, model provider.LanguageModel) (*provider.GenerateOptions, error)

	WrapGenerate func(ctx context.Context, doGenerate func() (*types.GenerateResult, error), doStream func() (provider.TextStream, error), params *provider.GenerateOptions, model provider.LanguageModel) (*types.GenerateResult, error)

	WrapStream func(ctx context.Context, doGenerate func() (*types.GenerateResult, error), doStream func() (provider.TextStream, error), params *provider.GenerateOptions, model provider.LanguageModel) (provider.TextStream, error)
}

// middlewareLayer is one link in the chain WrapLanguageModel builds: a
// LanguageModel decorated with a single middleware's hooks, delegating
// everything else to the model beneath it.
type middlewareLayer struct {
	next       provider.LanguageModel
	mw         *LanguageModelMiddleware
	modelID    *string
	providerID *string
}

// WrapLanguageModel layers middleware around model, innermost-last: the
// first entry in middleware sees (and transforms) a call before any later
// entry does, while the last entry sits directly against model. modelID and
// providerID, when non-nil, override what every layer reports regardless of
// individual middlewares' OverrideModelID/OverrideProvider hooks.
func WrapLanguageModel(model provider.LanguageModel, middleware []*LanguageModelMiddleware, modelID, providerID *string) provider.LanguageModel {
	wrapped := model
	for i := len(middleware) - 1; i >= 0; i-- {
		wrapped = &middlewareLayer{next: wrapped, mw: middleware[i], modelID: modelID, providerID: providerID}
	}
	return wrapped
}

func (l *middlewareLayer) SpecificationVersion() string { return "v3" }

func (l *middlewareLayer) Provider() string {
	switch {
	case l.providerID != nil:
		return *l.providerID
	case l.mw.OverrideProvider != nil:
		return l.mw.OverrideProvider(l.next)
	default:
		return l.next.Provider()
	}
}

func (l *middlewareLayer) ModelID() string {
	switch {
	case l.modelID != nil:
		return *l.modelID
	case l.mw.OverrideModelID != nil:
		return l.mw.OverrideModelID(l.next)
	default:
		return l.next.ModelID()
	}
}

func (l *middlewareLayer) SupportsTools() bool            { return l.next.SupportsTools() }
func (l *middlewareLayer) SupportsStructuredOutput() bool { return l.next.SupportsStructuredOutput() }
func (l *middlewareLayer) SupportsImageInput() bool       { return l.next.SupportsImageInput() }

// transformedCall applies the layer's TransformParams (if any), then returns
// doGenerate/doStream thunks bound to the transformed options, ready to hand
// to WrapGenerate/WrapStream or to invoke directly.
func (l *middlewareLayer) transformedCall(ctx context.Context, callType string, opts *provider.GenerateOptions) (*provider.GenerateOptions, func() (*types.GenerateResult, error), func() (provider.TextStream, error), error) {
	transformed := opts
	if l.mw.TransformParams != nil {
		var err error
		transformed, err = l.mw.TransformParams(ctx, callType, opts, l.next)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	doGenerate := func() (*types.GenerateResult, error) { return l.next.DoGenerate(ctx, transformed) }
	doStream := func() (provider.TextStream, error) { return l.next.DoStream(ctx, transformed) }
	return transformed, doGenerate, doStream, nil
}

func (l *middlewareLayer) DoGenerate(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
	transformed, doGenerate, doStream, err := l.transformedCall(ctx, "generate", opts)
	if err != nil {
		return nil, err
	}
	if l.mw.WrapGenerate != nil {
		return l.mw.WrapGenerate(ctx, doGenerate, doStream, transformed, l.next)
	}
	return doGenerate()
}

func (l *middlewareLayer) DoStream(ctx context.Context, opts *provider.GenerateOptions) (provider.TextStream, error) {
	transformed, doGenerate, doStream, err := l.transformedCall(ctx, "stream", opts)
	if err != nil {
		return nil, err
	}
	if l.mw.WrapStream != nil {
		return l.mw.WrapStream(ctx, doGenerate, doStream, transformed, l.next)
	}
	return doStream()
}
