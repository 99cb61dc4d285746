package response

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/mealcoach-backend/internal/data/aggregates"
	"github.com/yungbote/mealcoach-backend/internal/domain/mealplan"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

// RateLimitRetryAfter is sent with 429 responses.
const RateLimitRetryAfter = 60

// RespondDomainError maps typed errors to a status and error envelope. Model
// output never reaches the client beyond the truncated parse fragment.
func RespondDomainError(c *gin.Context, log *logger.Logger, err error) {
	var (
		ent  *mealplan.EntitlementRequiredError
		pre  *mealplan.PrerequisiteMissingError
		gen  *mealplan.GenerationFailedError
		pe   *mealplan.PlanParseError
		verr *mealplan.ValidationError
	)
	switch {
	case errors.As(err, &ent):
		RespondError(c, http.StatusForbidden, "entitlement_required", err)
	case errors.As(err, &pre):
		c.JSON(http.StatusPreconditionFailed, ErrorEnvelope{Error: APIError{
			Message: err.Error(),
			Code:    "prerequisite_missing",
			Hint:    pre.Hint,
		}})
	case mealplan.IsNotFound(err), aggregates.IsCode(err, aggregates.CodeNotFound):
		RespondNoContent(c)
	case errors.Is(err, mealplan.ErrUserBusy), errors.Is(err, mealplan.ErrPlanSuperseded), aggregates.IsCode(err, aggregates.CodeConflict):
		RespondError(c, http.StatusConflict, "busy", err)
	case errors.As(err, &gen):
		switch gen.Kind {
		case mealplan.FailureRateLimited:
			c.Header("Retry-After", strconv.Itoa(RateLimitRetryAfter))
			RespondError(c, http.StatusTooManyRequests, string(gen.Kind), errors.New("model capacity exhausted, retry later"))
		case mealplan.FailureTimeout:
			RespondError(c, http.StatusGatewayTimeout, string(gen.Kind), errors.New("model call timed out"))
		case mealplan.FailureStore:
			status := http.StatusInternalServerError
			if aggregates.IsCode(err, aggregates.CodeRetryable) {
				status = http.StatusServiceUnavailable
			}
			RespondError(c, status, string(gen.Kind), errors.New("meal plan could not be saved"))
		default:
			RespondError(c, http.StatusBadGateway, string(gen.Kind), errors.New("meal plan generation failed"))
		}
		logFailure(c, log, err)
	case errors.As(err, &pe):
		RespondError(c, http.StatusBadGateway, string(mealplan.FailureParse), errors.New("model response could not be read"))
		logFailure(c, log, err)
	case errors.As(err, &verr), aggregates.IsCode(err, aggregates.CodeValidation):
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", errors.New("internal error"))
		logFailure(c, log, err)
	}
}

func logFailure(c *gin.Context, log *logger.Logger, err error) {
	if log == nil {
		return
	}
	log.Error("request failed", "path", c.FullPath(), "error", err)
}
