package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/golang/glog"
	"github.com/livepeer/sensor-data/aggregation"
	"github.com/livepeer/sensor-data/sensors"
)

type errorResponse struct {
	Errors []string
}

func respondError(rw http.ResponseWriter, defaultStatus int, errs ...error) {
	status := defaultStatus
	response := errorResponse{}
	for _, err := range errs {
		response.Errors = append(response.Errors, err.Error())
		if errors.Is(err, sensors.ErrSensorTypeNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, aggregation.ErrUnknownGranularity) {
			status = http.StatusBadRequest
		}
	}
	respondJson(rw, status, response)
}

// respondJson encodes response before writing any header so that an
// unencodable body becomes a 500 instead of an empty 200.
func respondJson(rw http.ResponseWriter, status int, response interface{}) {
	body, err := json.Marshal(response)
	if err != nil {
		glog.Errorf("Error encoding response. err=%q, response=%+v", err, response)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Errors: []string{fmt.Sprintf("error encoding response: %s", err)}})
	}

	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(status)
	if _, err := rw.Write(body); err != nil {
		glog.Errorf("Error writing response. err=%q, status=%d", err, status)
	}
}
