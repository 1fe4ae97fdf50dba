package task

// Transition 场景转场效果
type Transition string

const (
	TransitionZoomIn  Transition = "zoom-in"
	TransitionZoomOut Transition = "zoom-out"
	TransitionNone    Transition = "none"
)

// ParseTransition 未知取值一律视为 none
func ParseTransition(s string) Transition {
	switch Transition(s) {
	case TransitionZoomIn, TransitionZoomOut:
		return Transition(s)
	}
	return TransitionNone
}

// Camera 镜头参数
type Camera struct {
	Angle           string `json:"angle"`
	CompositionType string `json:"composition_type"`
	ShotSize        string `json:"shot_size"`
}

// Scene 分镜中的一个场景
//
// Image、EnhancedPrompt、ErrorMessage 在流水线执行过程中被填充。
type Scene struct {
	SceneNumber    int        `json:"scene_number"`
	Description    string     `json:"description"`
	Subtitles      string     `json:"subtitles"`
	Camera         Camera     `json:"camera"`
	Lighting       string     `json:"lighting"`
	TransitionType Transition `json:"transition_type"`

	Image          *string `json:"image"`
	EnhancedPrompt string  `json:"enhanced_prompt,omitempty"`
	ErrorMessage   string  `json:"error_message,omitempty"`
}

// ProjectInfo 分镜元信息
type ProjectInfo struct {
	Title     string `json:"title"`
	User      string `json:"user"`
	Timestamp string `json:"timestamp"`
}

// Storyboard 只存在于内存中的分镜
type Storyboard struct {
	ProjectInfo ProjectInfo `json:"project_info"`
	Scenes      []*Scene    `json:"storyboards"`
	Characters  []Character `json:"characters,omitempty"`
}

// Character 角色外观描述
type Character struct {
	Name           string `json:"name"`
	Ethnicity      string `json:"ethnicity"`
	Gender         string `json:"gender"`
	Age            string `json:"age"`
	FacialFeatures string `json:"facial_features"`
	BodyType       string `json:"body_type"`
	HairStyle      string `json:"hair_style"`
	Accessories    string `json:"accessories"`
}
