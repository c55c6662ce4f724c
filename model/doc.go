// Package model defines the single contract the engine has with language
// model providers: send conversation turns plus model parameters, receive
// generated text and a token count, fail with a CallError on provider
// failure. Provider adapters live in the openai and anthropic subpackages;
// MockCaller serves tests and examples.
package model
