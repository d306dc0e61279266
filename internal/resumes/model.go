package resumes

// Resume is one tracked application: a JSON record under "resume:<id>" plus
// two artifacts (a preview image and the source document) in the object store.
type Resume struct {
	ID             string   `json:"id" validate:"required"`
	CompanyName    string   `json:"companyName,omitempty" validate:"max=200"`
	JobTitle       string   `json:"jobTitle,omitempty" validate:"max=200"`
	JobDescription string   `json:"jobDescription,omitempty"`
	ImagePath      string   `json:"imagePath,omitempty"`
	ResumePath     string   `json:"resumePath,omitempty"`
	Feedback       Feedback `json:"feedback"`
}

// Feedback is produced by the external scoring engine and is display-only here.
type Feedback struct {
	OverallScore float64  `json:"overallScore" validate:"gte=0,lte=100"`
	ATS          *Section `json:"ATS,omitempty"`
	ToneAndStyle *Section `json:"toneAndStyle,omitempty"`
	Content      *Section `json:"content,omitempty"`
	Structure    *Section `json:"structure,omitempty"`
	Skills       *Section `json:"skills,omitempty"`
}

// Section is one scored feedback category.
type Section struct {
	Score float64 `json:"score" validate:"gte=0,lte=100"`
	Tips  []Tip   `json:"tips"`
}

// Tip is a single improvement suggestion.
type Tip struct {
	Type        string `json:"type"`
	Tip         string `json:"tip"`
	Explanation string `json:"explanation,omitempty"`
}

// artifacts returns the resume's artifact paths in a stable order: image, then document.
func (r Resume) artifacts() []artifactRef {
	return []artifactRef{
		{Kind: ArtifactImage, Path: r.ImagePath},
		{Kind: ArtifactResume, Path: r.ResumePath},
	}
}

type artifactRef struct {
	Kind ArtifactKind
	Path string
}
