package swagger

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Handler serves swagger UI pointed at the OpenAPI document found at docURL.
func Handler(docURL string) http.Handler {
	return httpSwagger.Handler(
		httpSwagger.URL(docURL),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DeepLinking(true),
	)
}
