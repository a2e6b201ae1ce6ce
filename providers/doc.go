// Package providers is a catalog of ready-made sign-in provider
// descriptors. Each constructor returns a descriptor preloaded with the
// provider's endpoints, default scopes and profile mapping; callers
// supply credentials and optional overrides through the Options struct.
//
// Usage:
//
//	reg, err := provider.NewRegistry(baseURL,
//		providers.GitHub(providers.Options{
//			ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
//			ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
//		}),
//		providers.Google(providers.Options{
//			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
//			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
//		}),
//	)
//
// Overrides are resolved field by field: a non-zero Options field replaces
// the catalog default for that field only, it is never merged into it.
package providers
