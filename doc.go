// Package abapforge defines the core types of the ABAP generation
// orchestrator: providers, messages, credentials, generation intents and
// normalized results.
//
// The package is the shared vocabulary of the subpackages:
//
//   - [github.com/spetersoncode/abapforge/provider]: builds a [ChatProvider] for a
//     [Credential] (groq, arcee, openai, anthropic, google)
//   - [github.com/spetersoncode/abapforge/registry]: resolves the ordered provider
//     candidates for a user
//   - [github.com/spetersoncode/abapforge/guard]: the fail-closed safety guard
//   - [github.com/spetersoncode/abapforge/orchestrator]: runs the guard, picks a
//     provider, and returns a [Result]
//
// # Basic Usage
//
//	creds := store.NewMemory()
//	creds.PutCredential(ctx, ai.Credential{UserID: "u1", Provider: ai.ProviderGroq, APIKey: key, Enabled: true})
//
//	factory := provider.NewFactory()
//	o := orchestrator.New(
//	    guard.New(creds, factory),
//	    registry.New(creds),
//	    factory,
//	)
//
//	intent := ai.Intent{Kind: ai.KindProgram, Description: "ALV report for open sales orders"}
//	result := o.Generate(ctx, orchestrator.Request{
//	    UserID: "u1",
//	    Intent: intent,
//	    Guard:  ai.PayloadFromIntent(intent),
//	})
//	if result.GuardRejected {
//	    // policy block
//	}
//
// # Errors
//
// Provider clients fail with [*ProviderError], whose [ErrorKind] is one of
// [KindAuth], [KindRateLimited], [KindInvalidRequest], [KindUpstreamFailure]
// or [KindTimeout]. The orchestrator converts every error into a failed
// [Result]; nothing crosses its boundary as an error or panic.
package abapforge
