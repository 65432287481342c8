package descriptor

// Goal names what an execution contributes to the classpath.
type Goal string

const (
	GoalCompile         Goal = "compile"
	GoalTestCompile     Goal = "testCompile"
	GoalResources       Goal = "resources"
	GoalTestResources   Goal = "testResources"
	GoalAddSource       Goal = "add-source"
	GoalAddTestSource   Goal = "add-test-source"
	GoalAddResource     Goal = "add-resource"
	GoalAddTestResource Goal = "add-test-resource"
)

// Default execution ids synthesized from the standard layout.
const (
	DefaultCompileID       = "default-compile"
	DefaultResourcesID     = "default-resources"
	DefaultTestCompileID   = "default-testCompile"
	DefaultTestResourcesID = "default-testResources"
)

// DefaultExecutionIDs lists the synthesized executions in classpath order.
var DefaultExecutionIDs = []string{
	DefaultCompileID,
	DefaultResourcesID,
	DefaultTestCompileID,
	DefaultTestResourcesID,
}

var knownGoals = map[Goal]bool{
	GoalCompile:         true,
	GoalTestCompile:     true,
	GoalResources:       true,
	GoalTestResources:   true,
	GoalAddSource:       true,
	GoalAddTestSource:   true,
	GoalAddResource:     true,
	GoalAddTestResource: true,
}

// Known reports whether g is a recognized goal.
func (g Goal) Known() bool {
	return knownGoals[g]
}

// IsTest reports whether the goal produces test-scoped roots.
func (g Goal) IsTest() bool {
	switch g {
	case GoalTestCompile, GoalTestResources, GoalAddTestSource, GoalAddTestResource:
		return true
	}
	return false
}

// IsResource reports whether the goal produces resource roots rather than source roots.
func (g Goal) IsResource() bool {
	switch g {
	case GoalResources, GoalTestResources, GoalAddResource, GoalAddTestResource:
		return true
	}
	return false
}

// DefaultGoalFor returns the goal of a synthesized default execution id, or "".
func DefaultGoalFor(id string) Goal {
	switch id {
	case DefaultCompileID:
		return GoalCompile
	case DefaultResourcesID:
		return GoalResources
	case DefaultTestCompileID:
		return GoalTestCompile
	case DefaultTestResourcesID:
		return GoalTestResources
	}
	return ""
}
