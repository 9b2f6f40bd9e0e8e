// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logs

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakevault/api/utils"
	"github.com/vechain/stakevault/logdb"
	"github.com/vechain/stakevault/thor"
)

type Logs struct {
	db    *logdb.LogDB
	limit uint64
}

func New(db *logdb.LogDB, logsLimit uint64) *Logs {
	return &Logs{
		db,
		logsLimit,
	}
}

func parseUint(query url.Values, name string) (*uint64, error) {
	s := query.Get(name)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, name))
	}
	return &v, nil
}

func (l *Logs) parseFilter(query url.Values) (*logdb.EventFilter, error) {
	filter := &logdb.EventFilter{Order: logdb.ASC}

	if s := query.Get("account"); s != "" {
		addr, err := thor.ParseAddress(s)
		if err != nil {
			return nil, utils.BadRequest(errors.WithMessage(err, "account"))
		}
		filter.Account = &addr
	}
	for _, v := range query["event"] {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				filter.Names = append(filter.Names, name)
			}
		}
	}

	switch order := logdb.Order(query.Get("order")); order {
	case "", logdb.ASC:
	case logdb.DESC:
		filter.Order = logdb.DESC
	default:
		return nil, utils.BadRequest(fmt.Errorf("order: unexpected value %q", order))
	}

	from, err := parseUint(query, "from")
	if err != nil {
		return nil, err
	}
	to, err := parseUint(query, "to")
	if err != nil {
		return nil, err
	}
	if from != nil || to != nil {
		filter.Range = &logdb.Range{To: math.MaxInt64}
		if from != nil {
			filter.Range.From = *from
		}
		if to != nil {
			filter.Range.To = *to
		}
		if filter.Range.From > filter.Range.To {
			return nil, utils.BadRequest(errors.New("to must be greater than or equal to from"))
		}
	}

	offset, err := parseUint(query, "offset")
	if err != nil {
		return nil, err
	}
	limit, err := parseUint(query, "limit")
	if err != nil {
		return nil, err
	}
	filter.Options = &logdb.Options{Limit: l.limit}
	if offset != nil {
		if *offset > math.MaxInt64 {
			return nil, utils.BadRequest(fmt.Errorf("offset exceeds the maximum allowed value of %d", uint64(math.MaxInt64)))
		}
		filter.Options.Offset = *offset
	}
	if limit != nil {
		if *limit > l.limit {
			return nil, utils.Forbidden(fmt.Errorf("limit exceeds the maximum allowed value of %d", l.limit))
		}
		filter.Options.Limit = *limit
	}
	return filter, nil
}

func (l *Logs) handleFilter(w http.ResponseWriter, req *http.Request) error {
	filter, err := l.parseFilter(req.URL.Query())
	if err != nil {
		return err
	}
	events, err := l.db.Filter(req.Context(), filter)
	if err != nil {
		return err
	}
	out := make([]*Event, len(events))
	for i, e := range events {
		out[i] = ConvertEvent(e)
	}
	return utils.WriteJSON(w, out)
}

func (l *Logs) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/vault").
		Methods(http.MethodGet).
		Name("GET /logs/vault").
		HandlerFunc(utils.WrapHandlerFunc(l.handleFilter))
}
