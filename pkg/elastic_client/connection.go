package elastic_client

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/rs/zerolog/log"
	"github.com/travigo/pushport/pkg/config"
)

// Connect builds a client that retries throttled and unavailable responses
// with exponential backoff, and checks the cluster answers.
func Connect(elasticConfig config.ElasticConfig) (*elasticsearch.Client, error) {
	es, err := NewClient(elasticConfig)
	if err != nil {
		return nil, err
	}

	res, err := es.Info()
	if err != nil {
		return nil, err
	}
	res.Body.Close()

	log.Info().Strs("addresses", elasticConfig.Addresses).Msg("Elasticsearch client setup")

	return es, nil
}

func NewClient(elasticConfig config.ElasticConfig) (*elasticsearch.Client, error) {
	tp := http.DefaultTransport.(*http.Transport).Clone()
	if elasticConfig.InsecureSkipVerify {
		tp.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	retryBackoff := backoff.NewExponentialBackOff()

	return elasticsearch.NewClient(elasticsearch.Config{
		Addresses: elasticConfig.Addresses,
		Username:  elasticConfig.Username,
		Password:  elasticConfig.Password,
		Transport: tp,

		RetryOnStatus: []int{502, 503, 504, 429},

		RetryBackoff: func(i int) time.Duration {
			if i == 1 {
				retryBackoff.Reset()
			}
			return retryBackoff.NextBackOff()
		},
		MaxRetries: 5,
	})
}
