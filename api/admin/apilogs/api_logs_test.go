// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package apilogs

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPILogsHandler(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		startValue bool
		body       *LogStatus
		want       bool
	}{
		{"enable", http.MethodPost, false, &LogStatus{Enabled: true}, true},
		{"disable", http.MethodPost, true, &LogStatus{Enabled: false}, false},
		{"get", http.MethodGet, true, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var enabled atomic.Bool
			enabled.Store(tt.startValue)

			var body []byte
			if tt.body != nil {
				var err error
				body, err = json.Marshal(tt.body)
				require.NoError(t, err)
			}
			rr := httptest.NewRecorder()
			router := mux.NewRouter()
			New(&enabled).Mount(router, "/admin/apilogs")
			router.ServeHTTP(rr, httptest.NewRequest(tt.method, "/admin/apilogs", bytes.NewReader(body)))

			assert.Equal(t, http.StatusOK, rr.Code)
			var resp LogStatus
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, tt.want, resp.Enabled)
			assert.Equal(t, tt.want, enabled.Load())
		})
	}
}
