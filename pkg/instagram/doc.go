// Package instagram provides a client for Instagram's public web API.
//
// Two calls are exposed, each issuing exactly one HTTP request:
//   - FetchProfile resolves a handle to an account id and profile fields
//   - FetchTimelinePage requests one page of timeline media
//
// Failures surface as the types in igdash/pkg/errors: non-2xx answers and
// transport failures as *errors.UpstreamError, responses missing an
// expected field as *errors.MalformedResponseError.
//
// Example usage:
//
//	client := instagram.NewClient(cfg.Instagram, log)
//
//	user, err := client.FetchProfile(ctx, "natgeo")
//	if err != nil {
//	    return err
//	}
//	page, err := client.FetchTimelinePage(ctx, user.ID, 50, "")
package instagram
