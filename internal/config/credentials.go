package config

import "os"

// Credentials are the four X API user-context secrets. They are read
// from the environment (GitHub Actions secrets in CI, .env locally) and
// never written to config files or logs.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
}

// CredentialsFromEnv reads the X credentials, failing with
// Error{Missing} on the first absent variable.
func CredentialsFromEnv() (Credentials, error) {
	creds := Credentials{
		ConsumerKey:    os.Getenv("X_CONSUMER_KEY"),
		ConsumerSecret: os.Getenv("X_CONSUMER_SECRET"),
		AccessToken:    os.Getenv("X_ACCESS_TOKEN"),
		AccessSecret:   os.Getenv("X_ACCESS_SECRET"),
	}
	for _, kv := range []struct{ key, val string }{
		{"X_CONSUMER_KEY", creds.ConsumerKey},
		{"X_CONSUMER_SECRET", creds.ConsumerSecret},
		{"X_ACCESS_TOKEN", creds.AccessToken},
		{"X_ACCESS_SECRET", creds.AccessSecret},
	} {
		if kv.val == "" {
			return Credentials{}, missing(kv.key)
		}
	}
	return creds, nil
}
