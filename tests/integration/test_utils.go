package integration

import (
	"encoding/json"
	"net/http"
)

func jsonDecode(resp *http.Response, target interface{}) error {
	return json.NewDecoder(resp.Body).Decode(target)
}
