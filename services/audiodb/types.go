package audiodb

// Artist is the subset of TheAudioDB artist record the API exposes.
type Artist struct {
	ID        string `json:"idArtist"`
	Name      string `json:"strArtist"`
	Genre     string `json:"strGenre"`
	Biography string `json:"strBiographyEN"`
	Country   string `json:"strCountry"`
	Website   string `json:"strWebsite"`
	Thumb     string `json:"strArtistThumb"`
	Banner    string `json:"strArtistBanner"`
	Formed    string `json:"intFormedYear"`
}

type searchResponse struct {
	Artists []Artist `json:"artists"`
}

// TrendingTrack is one entry of the iTunes singles trending chart.
type TrendingTrack struct {
	ChartPlace string `json:"intChartPlace"`
	Artist     string `json:"strArtist"`
	Track      string `json:"strTrack"`
	TrackThumb string `json:"strTrackThumb"`
	Country    string `json:"strCountry"`
}

type trendingResponse struct {
	Trending []TrendingTrack `json:"trending"`
}
