package genius

import "encoding/json"

// searchResponse is the top-level shape of the search API response.
type searchResponse struct {
	Response struct {
		Hits []searchHit `json:"hits"`
	} `json:"response"`
}

// searchHit wraps one result in the API's hit envelope
type searchHit struct {
	Result songResult `json:"result"`
}

// songResult carries the fields the resolver scores on. IDs arrive as
// numbers; json.Number keeps them stringable without precision loss.
type songResult struct {
	ID            json.Number `json:"id"`
	Title         string      `json:"title"`
	FullTitle     string      `json:"full_title"`
	URL           string      `json:"url"`
	PrimaryArtist struct {
		Name string `json:"name"`
	} `json:"primary_artist"`
	Album *struct {
		Name string `json:"name"`
	} `json:"album"`
	ReleaseDateComponents *struct {
		Year int `json:"year"`
	} `json:"release_date_components"`
}
