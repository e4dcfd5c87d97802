package model

// TokenRecord is one ranked entry from the most-called tokens feed.
// Records arrive pre-sorted by call volume, but the ranker re-sorts
// defensively rather than trusting upstream ordering.
type TokenRecord struct {
	Symbol    string
	Name      string // optional, eg: "Dogwifhat"
	Address   string // chain address ("CA" in the posts)
	CallCount int
	WinRate   float64 // percentage, 0..100
}

// PostPair is the rendered output of one run: the root post and the
// delayed threaded reply. ReplyText may be empty, in which case only
// the root is published. Image paths are optional.
type PostPair struct {
	RootText   string
	RootImage  string
	ReplyText  string
	ReplyImage string
}

// MediaUploadResp is the v1.1 simple media upload response. Older API
// deployments populate only the numeric id, newer ones the string form.
type MediaUploadResp struct {
	MediaID       int64  `json:"media_id"`
	MediaIDString string `json:"media_id_string"`
}
