package analysis

import "github.com/richxcame/cyberguard/internal/providers"

var tasksByInputType = map[string][]providers.TaskType{
	"url":    {providers.TaskWhois, providers.TaskSSL, providers.TaskOSINT, providers.TaskMalware},
	"phone":  {providers.TaskOSINT, providers.TaskTruecaller},
	"email":  {providers.TaskOSINT, providers.TaskBreachCheck},
	"social": {providers.TaskOSINT, providers.TaskProfileAnalysis},
	"media":  {providers.TaskReverseSearch, providers.TaskContentAnalysis},
}

// TasksForInputType returns the checks run for an input type, in aggregation order.
// Unrecognized types get an OSINT lookup only.
func TasksForInputType(inputType string) []providers.TaskType {
	tasks, ok := tasksByInputType[inputType]
	if !ok {
		return []providers.TaskType{providers.TaskOSINT}
	}
	out := make([]providers.TaskType, len(tasks))
	copy(out, tasks)
	return out
}
