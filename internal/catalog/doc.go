// Package catalog is the client for the upstream anime metadata service
// (Jikan v4, the public MyAnimeList mirror).
//
// Every request goes through Client.Fetch, which absorbs the service's rate
// limiting: a 429 response pauses the shared Gate for the RetryPolicy delay
// and repeats the same GET. By default there is no attempt cap and the delay
// is a fixed second. Other error statuses surface as *RemoteError and network
// failures as *TransportError, both unchanged. The derived operations
// (ListPopular, ListSeasonal, Search, GetByID, GetRecommendations, Random)
// reshape the JSON envelope into models.CatalogEntry values.
package catalog
