package detection

import (
	"fmt"
	"path/filepath"
)

// Model selects which cascade classifier the stage loads to locate faces.
type Model string

const (
	ModelEar         Model = "Ear"
	ModelEye         Model = "Eye"
	ModelFrontalFace Model = "FrontalFace"
	ModelProfileFace Model = "ProfileFace"
)

// cascadeFiles maps each model to its file under the haarcascades directory.
var cascadeFiles = map[Model]string{
	ModelEar:         "haarcascade_ear.xml",
	ModelEye:         "haarcascade_eye_tree_eyeglasses.xml",
	ModelFrontalFace: "haarcascade_frontalface_alt2.xml",
	ModelProfileFace: "haarcascade_profileface.xml",
}

// Models returns every supported model in a stable order.
func Models() []Model {
	return []Model{ModelEar, ModelEye, ModelFrontalFace, ModelProfileFace}
}

// ParseModel validates name against the supported models.
func ParseModel(name string) (Model, error) {
	if _, ok := cascadeFiles[Model(name)]; !ok {
		return "", fmt.Errorf("invalid cascade model %q", name)
	}
	return Model(name), nil
}

// ModelsDir is the directory holding every model below an SDK root.
func ModelsDir(sdkPath string) string {
	return filepath.Join(sdkPath, "share", "openbr", "models")
}

// StasmDir is the landmark engine's data directory below an SDK root.
func StasmDir(sdkPath string) string {
	return filepath.Join(ModelsDir(sdkPath), "stasm")
}

// CascadePath resolves the cascade file for model below an SDK root.
func CascadePath(sdkPath string, model Model) (string, error) {
	file, ok := cascadeFiles[model]
	if !ok {
		return "", fmt.Errorf("invalid cascade model %q", model)
	}
	return filepath.Join(ModelsDir(sdkPath), "haarcascades", file), nil
}
