package api

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/billfold/billfold/pkg/billing"
	"github.com/billfold/billfold/pkg/httputil"
)

// writeBillingError translates a coded billing error into the matching HTTP
// status and envelope. Anything uncoded is a store failure.
func writeBillingError(w http.ResponseWriter, r *http.Request, err error) {
	coded, ok := billing.AsError(err)
	if !ok {
		logrus.WithError(err).WithField("path", r.URL.Path).Error("unexpected billing error")
		httputil.WriteInternalError(w, err)
		return
	}

	switch coded.Kind {
	case billing.KindValidation, billing.KindInvalidState:
		httputil.WriteErrorCode(w, http.StatusBadRequest, coded.Code, coded.Message)
	case billing.KindNotFound:
		httputil.WriteErrorCode(w, http.StatusNotFound, coded.Code, coded.Message)
	default:
		logrus.WithError(err).WithFields(logrus.Fields{
			"path": r.URL.Path,
			"code": coded.Code,
		}).Error("store failure")
		httputil.WriteErrorCode(w, http.StatusInternalServerError, coded.Code, coded.Message)
	}
}
