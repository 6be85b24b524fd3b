package worker

import (
	"github.com/to404hanga/online_judge_evaluator/model"
	"github.com/to404hanga/online_judge_evaluator/pkg/judge0"
)

// Aggregate 将一批测试用例结果折叠为单一结论。
// 遍历全部结果而非短路: 通过数、最大耗时与最大内存需要完整统计。
// 状态优先级 error > wrong > accepted, 错误信息取首个出错用例的,
// 仅有答案错误时固定为 "Wrong Answer"。
// 耗时与内存只统计通过的用例, 失败用例的数值不具可比性。
func Aggregate(outcomes []judge0.TestCaseOutcome) model.Verdict {
	verdict := model.Verdict{Status: model.SubmissionStatusAccepted}
	for _, outcome := range outcomes {
		switch outcome.StatusID {
		case judge0.StatusAccepted:
			verdict.TestCasesPassed++
			if t := outcome.TimeSeconds(); t > verdict.Runtime {
				verdict.Runtime = t
			}
			if outcome.Memory > verdict.Memory {
				verdict.Memory = outcome.Memory
			}
		case judge0.StatusWrongAnswer:
			if verdict.Status == model.SubmissionStatusAccepted {
				verdict.Status = model.SubmissionStatusWrong
				verdict.ErrorMessage = "Wrong Answer"
			}
		default:
			if verdict.Status != model.SubmissionStatusError {
				verdict.Status = model.SubmissionStatusError
				verdict.ErrorMessage = errorMessage(outcome)
			}
		}
	}
	return verdict
}

func errorMessage(outcome judge0.TestCaseOutcome) string {
	if outcome.Stderr != "" {
		return outcome.Stderr
	}
	if outcome.CompileOutput != "" {
		return outcome.CompileOutput
	}
	return judge0.StatusDescription(outcome.StatusID)
}

// BuildTestCaseReports 构造试运行的逐用例报告, 请求与结果按下标对齐
func BuildTestCaseReports(requests []judge0.ExecutionRequest, outcomes []judge0.TestCaseOutcome) []model.TestCaseReport {
	reports := make([]model.TestCaseReport, 0, len(outcomes))
	for i, outcome := range outcomes {
		report := model.TestCaseReport{
			TestCase:      i + 1,
			ActualOutput:  outcome.Stdout,
			Status:        judge0.StatusDescription(outcome.StatusID),
			StatusID:      outcome.StatusID,
			Runtime:       outcome.TimeSeconds(),
			Memory:        outcome.Memory,
			Error:         outcome.Stderr,
			CompileOutput: outcome.CompileOutput,
			Passed:        outcome.StatusID == judge0.StatusAccepted,
		}
		if i < len(requests) {
			report.Input = requests[i].Stdin
			report.ExpectedOutput = requests[i].ExpectedOutput
		}
		reports = append(reports, report)
	}
	return reports
}
