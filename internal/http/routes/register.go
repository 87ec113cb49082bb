// Package routes wires handlers to the Huma API.
package routes

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/warmloop/warmloop/internal/http/handlers"
	"github.com/warmloop/warmloop/internal/http/mw"
)

// Register registers all API routes with the given Huma API instance.
func Register(api huma.API, h *handlers.Handlers) {
	// Health check
	mw.Get(api, "/api/v1/health", h.HealthCheck,
		mw.WithTags("Health"),
		mw.WithSummary("Health check"),
		mw.WithOperationID("healthCheck"))

	// Kubernetes probes (hidden from docs)
	mw.HiddenGet(api, "/healthz", h.Livez)
	mw.HiddenGet(api, "/readyz", h.Readyz)

	// --- Accounts ---
	mw.Post(api, "/api/v1/accounts", h.Account.CreateAccount,
		mw.WithTags("Accounts"),
		mw.WithSummary("Create account"),
		mw.WithOperationID("createAccount"),
		mw.WithStatus(http.StatusCreated))
	mw.Post(api, "/api/v1/accounts/bulk", h.Account.BulkCreateAccounts,
		mw.WithTags("Accounts"),
		mw.WithSummary("Import accounts"),
		mw.WithDescription("Imports accounts in one request, continuing past individual failures."),
		mw.WithOperationID("bulkCreateAccounts"),
		mw.WithStatus(http.StatusCreated))
	mw.Get(api, "/api/v1/accounts", h.Account.ListAccounts,
		mw.WithTags("Accounts"),
		mw.WithSummary("List accounts"),
		mw.WithOperationID("listAccounts"))
	mw.Get(api, "/api/v1/accounts/{id}", h.Account.GetAccount,
		mw.WithTags("Accounts"),
		mw.WithSummary("Get account"),
		mw.WithOperationID("getAccount"))
	mw.Put(api, "/api/v1/accounts/{id}", h.Account.UpdateAccount,
		mw.WithTags("Accounts"),
		mw.WithSummary("Update account"),
		mw.WithOperationID("updateAccount"))
	mw.Delete(api, "/api/v1/accounts/{id}", h.Account.DeleteAccount,
		mw.WithTags("Accounts"),
		mw.WithSummary("Delete account"),
		mw.WithOperationID("deleteAccount"),
		mw.WithStatus(http.StatusNoContent))

	// --- Proxies ---
	mw.Post(api, "/api/v1/proxies", h.Proxy.CreateProxy,
		mw.WithTags("Proxies"),
		mw.WithSummary("Add proxy"),
		mw.WithOperationID("createProxy"),
		mw.WithStatus(http.StatusCreated))
	mw.Post(api, "/api/v1/proxies/fetch", h.Proxy.FetchProxies,
		mw.WithTags("Proxies"),
		mw.WithSummary("Fetch proxies from upstream"),
		mw.WithDescription("Pulls fresh endpoints from the configured proxy source and upserts them into the pool."),
		mw.WithOperationID("fetchProxies"))
	mw.Post(api, "/api/v1/proxies/session", h.Proxy.CreateSessionProxy,
		mw.WithTags("Proxies"),
		mw.WithSummary("Create session proxy"),
		mw.WithOperationID("createSessionProxy"))
	mw.Get(api, "/api/v1/proxies", h.Proxy.ListProxies,
		mw.WithTags("Proxies"),
		mw.WithSummary("List proxies"),
		mw.WithOperationID("listProxies"))
	mw.Get(api, "/api/v1/proxies/{id}", h.Proxy.GetProxy,
		mw.WithTags("Proxies"),
		mw.WithSummary("Get proxy"),
		mw.WithOperationID("getProxy"))
	mw.Put(api, "/api/v1/proxies/{id}", h.Proxy.UpdateProxy,
		mw.WithTags("Proxies"),
		mw.WithSummary("Update proxy"),
		mw.WithOperationID("updateProxy"))
	mw.Delete(api, "/api/v1/proxies", h.Proxy.DeleteProxies,
		mw.WithTags("Proxies"),
		mw.WithSummary("Delete proxies"),
		mw.WithOperationID("deleteProxies"))

	// --- Proxy mapping ---
	mw.Post(api, "/api/v1/proxies/mapping", h.Mapping.CreateMapping,
		mw.WithTags("Mapping"),
		mw.WithSummary("Assign proxies to accounts"),
		mw.WithDescription("Distributes active proxies across the given accounts, replacing any assignments those accounts already had."),
		mw.WithOperationID("createMapping"),
		mw.WithStatus(http.StatusCreated))
	mw.Get(api, "/api/v1/proxies/mapping", h.Mapping.ListMappings,
		mw.WithTags("Mapping"),
		mw.WithSummary("List assignments"),
		mw.WithOperationID("listMappings"))
	mw.Delete(api, "/api/v1/proxies/mapping/{accountId}", h.Mapping.DeleteMapping,
		mw.WithTags("Mapping"),
		mw.WithSummary("Remove assignment"),
		mw.WithOperationID("deleteMapping"),
		mw.WithStatus(http.StatusNoContent))

	// --- Browser sessions ---
	mw.Post(api, "/api/v1/proxies/browser/open", h.Browser.OpenBrowsers,
		mw.WithTags("Browser"),
		mw.WithSummary("Open browser sessions"),
		mw.WithDescription("Opens a browser session per assigned account. Existing sessions are closed first."),
		mw.WithOperationID("openBrowsers"))
	mw.Post(api, "/api/v1/proxies/browser/close", h.Browser.CloseBrowsers,
		mw.WithTags("Browser"),
		mw.WithSummary("Close browser sessions"),
		mw.WithOperationID("closeBrowsers"))
	mw.Get(api, "/api/v1/proxies/browser/stats", h.Browser.BrowserStats,
		mw.WithTags("Browser"),
		mw.WithSummary("Browser session stats"),
		mw.WithOperationID("browserStats"))

	// --- Pipelines ---
	mw.Post(api, "/api/v1/pipelines", h.Pipeline.CreatePipeline,
		mw.WithTags("Pipelines"),
		mw.WithSummary("Create pipeline"),
		mw.WithOperationID("createPipeline"),
		mw.WithStatus(http.StatusCreated))
	mw.Get(api, "/api/v1/pipelines", h.Pipeline.ListPipelines,
		mw.WithTags("Pipelines"),
		mw.WithSummary("List pipelines"),
		mw.WithOperationID("listPipelines"))
	mw.Get(api, "/api/v1/pipelines/{id}", h.Pipeline.GetPipeline,
		mw.WithTags("Pipelines"),
		mw.WithSummary("Get pipeline"),
		mw.WithOperationID("getPipeline"))
	mw.Put(api, "/api/v1/pipelines/{id}", h.Pipeline.UpdatePipeline,
		mw.WithTags("Pipelines"),
		mw.WithSummary("Update pipeline"),
		mw.WithOperationID("updatePipeline"))
	mw.Delete(api, "/api/v1/pipelines/{id}", h.Pipeline.DeletePipeline,
		mw.WithTags("Pipelines"),
		mw.WithSummary("Delete pipeline"),
		mw.WithOperationID("deletePipeline"),
		mw.WithStatus(http.StatusNoContent))

	// --- Fingerprint profiles ---
	mw.Post(api, "/api/v1/profiles", h.Profile.CreateProfile,
		mw.WithTags("Profiles"),
		mw.WithSummary("Create fingerprint profile"),
		mw.WithOperationID("createProfile"),
		mw.WithStatus(http.StatusCreated))
	mw.Get(api, "/api/v1/profiles", h.Profile.ListProfiles,
		mw.WithTags("Profiles"),
		mw.WithSummary("List fingerprint profiles"),
		mw.WithOperationID("listProfiles"))
	mw.Get(api, "/api/v1/profiles/{id}", h.Profile.GetProfile,
		mw.WithTags("Profiles"),
		mw.WithSummary("Get fingerprint profile"),
		mw.WithOperationID("getProfile"))
	mw.Put(api, "/api/v1/profiles/{id}/proxy", h.Profile.AttachProfileProxy,
		mw.WithTags("Profiles"),
		mw.WithSummary("Attach proxy to profile"),
		mw.WithDescription("Writes a pool proxy's address and credentials into the profile's proxy block."),
		mw.WithOperationID("attachProfileProxy"))
	mw.Put(api, "/api/v1/profiles/{id}", h.Profile.UpdateProfile,
		mw.WithTags("Profiles"),
		mw.WithSummary("Update fingerprint profile"),
		mw.WithOperationID("updateProfile"))
	mw.Delete(api, "/api/v1/profiles/{id}", h.Profile.DeleteProfile,
		mw.WithTags("Profiles"),
		mw.WithSummary("Delete fingerprint profile"),
		mw.WithOperationID("deleteProfile"),
		mw.WithStatus(http.StatusNoContent))
}
