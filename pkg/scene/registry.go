package scene

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/df07/go-weekend-raytracer/pkg/renderer"
)

// ErrUnknownScene is returned when a scene id is not registered
var ErrUnknownScene = errors.New("unknown scene")

// SceneInfo describes a registered scene
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

// Constructor builds a scene, applying an optional camera override
type Constructor func(cameraOverrides ...renderer.CameraConfig) *Scene

type registration struct {
	info   SceneInfo
	create Constructor
}

const (
	groupWeekend  = "Ray Tracing in One Weekend"
	groupShowcase = "Showcase"
)

var registry = []registration{
	{SceneInfo{ID: "default", Description: "Diffuse, hollow glass and fuzzy metal spheres on a ground sphere", Group: groupWeekend}, NewDefaultScene},
	{SceneInfo{ID: "defocus", Description: "The default spheres through a wide lens focused on the center", Group: groupWeekend}, NewDefocusScene},
	{SceneInfo{ID: "random-spheres", Description: "Cover scene: hundreds of random small spheres around three large ones", Group: groupWeekend}, NewRandomSpheresScene},
	{SceneInfo{ID: "normals", Description: "A single sphere shaded by surface normal", Group: groupWeekend}, NewNormalsScene},
	{SceneInfo{ID: "sphere-grid", Description: "10x10 grid of rainbow-colored metallic spheres", Group: groupShowcase}, NewSphereGridScene},
	{SceneInfo{ID: "checkered-spheres", Description: "Two checker-textured spheres", Group: groupShowcase}, NewCheckeredSpheresScene},
}

func init() {
	for i := range registry {
		registry[i].info.DisplayName = titleCase(registry[i].info.ID)
	}
}

// ListScenes returns every registered scene in registration order
func ListScenes() []SceneInfo {
	scenes := make([]SceneInfo, len(registry))
	for i, r := range registry {
		scenes[i] = r.info
	}
	return scenes
}

// ListAllScenes returns the registered scenes grouped by category, the
// weekend scenes first and the remaining groups alphabetically
func ListAllScenes() ScenesResponse {
	groupMap := make(map[string][]SceneInfo)
	for _, info := range ListScenes() {
		groupMap[info.Group] = append(groupMap[info.Group], info)
	}

	var groupNames []string
	for groupName := range groupMap {
		if groupName != groupWeekend {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)
	if _, exists := groupMap[groupWeekend]; exists {
		groupNames = append([]string{groupWeekend}, groupNames...)
	}

	var response ScenesResponse
	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   groupName,
			Scenes: groupMap[groupName],
		})
	}
	return response
}

// Create builds the scene registered under id
func Create(id string, cameraOverrides ...renderer.CameraConfig) (*Scene, error) {
	for _, r := range registry {
		if r.info.ID == id {
			return r.create(cameraOverrides...), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScene, id)
}

// titleCase converts an id-style string to title case
// e.g., "random-spheres" -> "Random Spheres"
func titleCase(s string) string {
	// Replace hyphens and underscores with spaces
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
