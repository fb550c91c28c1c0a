package controller_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_service "github.com/EthanMiao/manaboo/internal/mocks/service"
	"github.com/EthanMiao/manaboo/internal/model"
	"github.com/EthanMiao/manaboo/internal/service"
)

func TestDialogueFlow(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := mock_service.NewMockGenerator(ctrl)
	s := newTestServer(t, gen)

	gen.EXPECT().DialogueTurn(gomock.Any(), gomock.Any()).Return("いらっしゃいませ。").Times(2)
	gen.EXPECT().CorrectSentence(gomock.Any(), "りんごをください。").
		Return(service.SentenceCorrection{Corrected: "りんごをください。", Explanation: "正确", Translation: "请给我苹果。"})
	gen.EXPECT().CorrectSentence(gomock.Any(), "みかんがください。").
		Return(service.SentenceCorrection{Corrected: "みかんをください。", Explanation: "宾语用を", Translation: "请给我橘子。"})

	var first service.SendResult
	decode(t, s.do(t, http.MethodPost, "/api/dialogue/send", "u1", map[string]string{
		"scenarioId": "shopping",
		"message":    "りんごをください。",
	}), http.StatusOK, &first)
	require.NotEmpty(t, first.SessionID)
	assert.Equal(t, "いらっしゃいませ。", first.Reply)
	assert.Nil(t, first.Correction)

	var second service.SendResult
	decode(t, s.do(t, http.MethodPost, "/api/dialogue/send", "u1", map[string]string{
		"sessionId": first.SessionID,
		"message":   "みかんがください。",
	}), http.StatusOK, &second)
	assert.Equal(t, first.SessionID, second.SessionID)
	require.NotNil(t, second.Correction)
	assert.Equal(t, "みかんをください。", second.Correction.Corrected)

	var session model.DialogueSession
	decode(t, s.do(t, http.MethodGet, "/api/dialogue/history/"+first.SessionID, "u1", nil), http.StatusOK, &session)
	assert.Equal(t, "shopping", session.Scenario)
	assert.Len(t, session.History, 4)

	decode(t, s.do(t, http.MethodDelete, "/api/dialogue/session/"+first.SessionID, "u1", nil), http.StatusOK, nil)
	decode(t, s.do(t, http.MethodDelete, "/api/dialogue/session/"+first.SessionID, "u1", nil), http.StatusNotFound, nil)
	decode(t, s.do(t, http.MethodGet, "/api/dialogue/history/"+first.SessionID, "u1", nil), http.StatusNotFound, nil)
}

func TestDialogueSendErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := mock_service.NewMockGenerator(ctrl)
	s := newTestServer(t, gen)

	decode(t, s.do(t, http.MethodPost, "/api/dialogue/send", "u1", map[string]string{"scenarioId": "shopping"}), http.StatusBadRequest, nil)
	decode(t, s.do(t, http.MethodPost, "/api/dialogue/send", "u1", map[string]string{"message": "   "}), http.StatusBadRequest, nil)
	decode(t, s.do(t, http.MethodPost, "/api/dialogue/send", "u1", map[string]string{
		"sessionId": "no-such-session",
		"message":   "こんにちは",
	}), http.StatusNotFound, nil)
}

func TestDialogueCorrect(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := mock_service.NewMockGenerator(ctrl)
	s := newTestServer(t, gen)

	gen.EXPECT().CorrectSentence(gomock.Any(), "私は学生だ。").
		Return(service.SentenceCorrection{Corrected: "私は学生です。", Explanation: "礼貌体", Translation: "我是学生。"})

	var correction service.SentenceCorrection
	decode(t, s.do(t, http.MethodPost, "/api/dialogue/correct", "u1", map[string]string{"message": "私は学生だ。"}), http.StatusOK, &correction)
	assert.Equal(t, "私は学生です。", correction.Corrected)
	assert.Equal(t, "我是学生。", correction.Translation)

	decode(t, s.do(t, http.MethodPost, "/api/dialogue/correct", "u1", map[string]string{}), http.StatusBadRequest, nil)
}

func TestScenarios(t *testing.T) {
	s := newTestServer(t, nil)

	var list []service.Scenario
	decode(t, s.do(t, http.MethodGet, "/api/scenarios", "", nil), http.StatusOK, &list)
	require.Len(t, list, 8)
	assert.Equal(t, service.Scenario{ID: "greeting", Name: "打招呼"}, list[0])
}
