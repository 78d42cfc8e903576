package drivers

import (
	"sort"

	"github.com/jbvmio/pumper"
	"github.com/jbvmio/pumper/driver"
	"github.com/jbvmio/pumper/driver/config"
	"github.com/pkg/errors"
)

// LoadProcessors loads processing Drivers for each pipeline, ordered by stage and step.
func LoadProcessors(cfg pumper.Configs) (processors map[string][][][]driver.Driver, err error) {
	processors = make(map[string][][][]driver.Driver)
	for k, v := range cfg {
		stageDefs := make([]pumper.Stage, len(v.Processors))
		copy(stageDefs, v.Processors)
		sort.SliceStable(stageDefs, func(i, j int) bool {
			return stageDefs[i].Stage < stageDefs[j].Stage
		})
		if checkNumDupes(stageNums(stageDefs)) {
			return nil, errors.Errorf("%s has duplicate stage number defined", k)
		}
		stages := make([][][]driver.Driver, 0, len(stageDefs))
		for _, s := range stageDefs {
			steps, err := loadSteps(k, s)
			if err != nil {
				return nil, err
			}
			stages = append(stages, steps)
		}
		processors[k] = stages
	}
	return processors, nil
}

func loadSteps(name string, s pumper.Stage) ([][]driver.Driver, error) {
	stepDefs := make([]pumper.Step, len(s.Steps))
	copy(stepDefs, s.Steps)
	sort.SliceStable(stepDefs, func(i, j int) bool {
		return stepDefs[i].Step < stepDefs[j].Step
	})
	nums := make([]int, len(stepDefs))
	for i, st := range stepDefs {
		nums[i] = st.Step
	}
	if checkNumDupes(nums) {
		return nil, errors.Errorf("%s stage %d has duplicate step numbers", name, s.Stage)
	}
	steps := make([][]driver.Driver, 0, len(stepDefs))
	for _, st := range stepDefs {
		d, err := config.FromConfig(st.Workflow)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid configuration for %s stage %d step %d", name, s.Stage, st.Step)
		}
		steps = append(steps, []driver.Driver{d})
	}
	return steps, nil
}

func stageNums(stages []pumper.Stage) []int {
	n := make([]int, len(stages))
	for i, s := range stages {
		n[i] = s.Stage
	}
	return n
}

func checkNumDupes(n []int) (hasDupe bool) {
	dupe := make(map[int]bool)
	for _, x := range n {
		if !dupe[x] {
			dupe[x] = true
			continue
		}
		hasDupe = true
		return
	}
	return
}
