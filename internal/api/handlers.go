package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/media"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/pkg/httputil"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/activities"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/adverts"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/agegroups"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/directory"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/events"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/messaging"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/schools"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/vacations"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	schools    *schools.Service
	ageGroups  *agegroups.Service
	activities *activities.Service
	events     *events.Service
	directory  *directory.Service
	vacations  *vacations.Service
	adverts    *adverts.Service
	messages   *messaging.Service
	media      *media.Service
	blobStore  media.BlobStore
	schoolCtx  *SchoolContextProvider
}

// NewHandlers creates a new Handlers instance. The school registry is the
// only mandatory service; verticals are attached with the setters below so
// cmd/server and cmd/worker can wire different subsets.
func NewHandlers(schoolsService *schools.Service) *Handlers {
	return &Handlers{
		schools: schoolsService,
	}
}

// SetAgeGroupsService sets the age group catalogue service
func (h *Handlers) SetAgeGroupsService(s *agegroups.Service) {
	h.ageGroups = s
}

// SetActivitiesService sets the activity group service
func (h *Handlers) SetActivitiesService(s *activities.Service) {
	h.activities = s
}

// SetEventsService sets the school events service
func (h *Handlers) SetEventsService(s *events.Service) {
	h.events = s
}

// SetDirectoryService sets the business directory service
func (h *Handlers) SetDirectoryService(s *directory.Service) {
	h.directory = s
}

// SetVacationsService sets the vacation packages service
func (h *Handlers) SetVacationsService(s *vacations.Service) {
	h.vacations = s
}

// SetAdvertsService sets the advertising service
func (h *Handlers) SetAdvertsService(s *adverts.Service) {
	h.adverts = s
}

// SetMessagingService sets the messaging service
func (h *Handlers) SetMessagingService(s *messaging.Service) {
	h.messages = s
}

// SetMediaService sets the upload service and its blob store. The store is
// kept so routes can serve local files in development.
func (h *Handlers) SetMediaService(s *media.Service, store media.BlobStore) {
	h.media = s
	h.blobStore = store
}

// SetSchoolContext sets the school context provider so mutation handlers can
// invalidate cached school rows.
func (h *Handlers) SetSchoolContext(p *SchoolContextProvider) {
	h.schoolCtx = p
}

// Error mapping conventions. Services return three kinds of errors: exported
// sentinels, unwrapped validation errors with field-level messages, and
// repository errors wrapped with %w. Handlers map the not-found sentinels to
// 404, pass validation messages through as 400, and hide wrapped repository
// errors behind a logged 500.

// failMutation writes the result envelope for a failed mutation.
func failMutation(w http.ResponseWriter, err error, notFound ...error) {
	for _, nf := range notFound {
		if errors.Is(err, nf) {
			httputil.Failed(w, http.StatusNotFound, err.Error())
			return
		}
	}
	if errors.Unwrap(err) != nil {
		log.Printf("ERROR: %v", err)
		httputil.Failed(w, http.StatusInternalServerError, "internal server error")
		return
	}
	httputil.Failed(w, http.StatusBadRequest, err.Error())
}

// queryError writes the error envelope for a failed read.
func queryError(w http.ResponseWriter, err error, notFound ...error) {
	for _, nf := range notFound {
		if errors.Is(err, nf) {
			httputil.NotFound(w, err.Error())
			return
		}
	}
	httputil.InternalError(w, err)
}
