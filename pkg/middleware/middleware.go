// Package middleware provides middleware functionality for wrapping language
// models with additional behavior like default settings, parameter
// transformation, and operation wrapping.
//
//	wrapped := middleware.WrapLanguageModel(model, []*middleware.LanguageModelMiddleware{
//		middleware.DefaultSettingsMiddleware(&provider.GenerateOptions{
//			Temperature: floatPtr(0.7),
//		}),
//	}, nil, nil)
package middleware
