package types_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/keymood/internal/domain/model"
	types "github.com/okian/keymood/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewPredictResponse(t *testing.T) {
	Convey("Given a rules decision without a model", t, func() {
		res := model.PredictionResult{
			Emotion:    model.Happy,
			Confidence: 1,
			Decision:   model.DecisionRules,
			Scores:     model.ScoreMap{1, 0, 0, 0},
		}

		Convey("When rendering the response", func() {
			out := types.NewPredictResponse("id-1", res)

			Convey("Then labels are rendered by name", func() {
				So(out.PredictionID, ShouldEqual, "id-1")
				So(out.Emotion, ShouldEqual, "Happy")
				So(out.Decision, ShouldEqual, "rules")
				So(out.Scores, ShouldResemble, map[string]float64{"Happy": 1, "Sad": 0, "Calm": 0, "Stressed": 0})
			})

			Convey("And model fields are omitted", func() {
				So(out.ModelEmotion, ShouldBeEmpty)
				So(out.ModelConfidence, ShouldBeNil)

				body, err := json.Marshal(out)
				So(err, ShouldBeNil)
				So(string(body), ShouldNotContainSubstring, "model_emotion")
				So(string(body), ShouldNotContainSubstring, "model_confidence")
			})
		})
	})

	Convey("Given a model fallback decision", t, func() {
		pred := &model.ModelPrediction{
			Probabilities: model.ScoreMap{0.1, 0.7, 0.1, 0.1},
			Emotion:       model.Sad,
			Confidence:    0.7,
		}
		res := model.PredictionResult{
			Emotion:    model.Sad,
			Confidence: 0.7,
			Decision:   model.DecisionModelFallback,
			Model:      pred,
		}

		Convey("When rendering the response", func() {
			out := types.NewPredictResponse("id-2", res)

			Convey("Then the model prediction is reported", func() {
				So(out.ModelEmotion, ShouldEqual, "Sad")
				So(out.ModelConfidence, ShouldNotBeNil)
				So(*out.ModelConfidence, ShouldEqual, 0.7)
			})
		})
	})
}

func TestBatchResult(t *testing.T) {
	Convey("Given a batch result carrying an error", t, func() {
		item := types.BatchResult{
			Index: 3,
			Error: &types.ErrorResponse{Code: "missing_input", Message: "no features received"},
		}

		Convey("When encoding it", func() {
			body, err := json.Marshal(item)
			So(err, ShouldBeNil)

			Convey("Then only the index and error are present", func() {
				So(string(body), ShouldEqual, `{"index":3,"error":{"code":"missing_input","message":"no features received"}}`)
			})
		})
	})
}
