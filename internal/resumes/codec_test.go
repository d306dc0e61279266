package resumes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		resume Resume
	}{
		{name: "minimal", resume: Resume{ID: "r1"}},
		{
			name: "full",
			resume: Resume{
				ID:             "r2",
				CompanyName:    "VOIS",
				JobTitle:       "Frontend Developer",
				JobDescription: "Build things.\nShip them.",
				ImagePath:      "abc/1_preview.png",
				ResumePath:     "abc/2_cv.pdf",
				Feedback: Feedback{
					OverallScore: 87.5,
					ATS:          &Section{Score: 90, Tips: []Tip{{Type: "good", Tip: "Keywords present"}}},
					Skills:       &Section{Score: 70, Tips: []Tip{{Type: "improve", Tip: "Add Go", Explanation: "Listed in the posting"}}},
				},
			},
		},
		{name: "unicode", resume: Resume{ID: "r3", CompanyName: "Société Générale", Feedback: Feedback{OverallScore: 100}}},
		{
			name: "empty and nil tips",
			resume: Resume{ID: "r4", Feedback: Feedback{
				Content:   &Section{Score: 50, Tips: []Tip{}},
				Structure: &Section{Score: 60},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Encode(tt.resume)
			require.NoError(t, err)

			got, err := Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.resume, got)
		})
	}
}

func TestDecodeRejectsUnusableValues(t *testing.T) {
	for _, raw := range []string{"", "   \n\t", "{bad", "[1,2]", "null", `"resume"`, `{"companyName":"x"}`, `{"id":"  "}`, `{"id":"a"} trailing`} {
		_, err := Decode(raw)
		assert.ErrorIs(t, err, ErrDecode, "raw=%q", raw)
	}
}

func TestDecodeToleratesUnknownFields(t *testing.T) {
	got, err := Decode(`{"id":"r1","feedback":{"overallScore":42},"legacy":true}`)
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)
	assert.Equal(t, 42.0, got.Feedback.OverallScore)
}

func TestDecodeToleratesMistypedFields(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Resume
	}{
		{
			name: "feedback not yet produced",
			raw:  `{"id":"pending","companyName":"Acme","feedback":""}`,
			want: Resume{ID: "pending", CompanyName: "Acme"},
		},
		{
			name: "score as string",
			raw:  `{"id":"s1","feedback":{"overallScore":"90","ATS":{"score":"80","tips":"none"}}}`,
			want: Resume{ID: "s1", Feedback: Feedback{OverallScore: 90, ATS: &Section{Score: 80}}},
		},
		{
			name: "unparseable score",
			raw:  `{"id":"s2","feedback":{"overallScore":"high","skills":null}}`,
			want: Resume{ID: "s2"},
		},
		{
			name: "mistyped display field",
			raw:  `{"id":"s3","jobTitle":42,"resumePath":"abc/cv.pdf"}`,
			want: Resume{ID: "s3", ResumePath: "abc/cv.pdf"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Decode(`{"id":7,"feedback":""}`)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestRecordKeys(t *testing.T) {
	assert.Equal(t, "resume:abc", RecordKey("abc"))

	id, ok := IDFromKey("resume:abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	_, ok = IDFromKey("feedback:abc")
	assert.False(t, ok)
}
