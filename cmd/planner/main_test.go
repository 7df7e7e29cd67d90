package main

import (
	"testing"
)

func TestAddCmd_DayRequired(t *testing.T) {
	cmd := (&app{}).addCmd()
	if err := cmd.ParseFlags([]string{"--name", "Algorithms", "--start", "09:00", "--end", "10:30"}); err != nil {
		t.Fatalf("解析参数失败: %v", err)
	}
	if err := cmd.ValidateRequiredFlags(); err == nil {
		t.Error("缺少 --day 时应报错，不能默认成星期日")
	}

	cmd = (&app{}).addCmd()
	if err := cmd.ParseFlags([]string{"--name", "Algorithms", "--day", "0"}); err != nil {
		t.Fatalf("解析参数失败: %v", err)
	}
	if err := cmd.ValidateRequiredFlags(); err != nil {
		t.Errorf("显式 --day 0 应通过，实际 %v", err)
	}
}

func TestUpdateCmd_DayOptional(t *testing.T) {
	cmd := (&app{}).updateCmd()
	if err := cmd.ParseFlags([]string{"--start", "15:00"}); err != nil {
		t.Fatalf("解析参数失败: %v", err)
	}
	if err := cmd.ValidateRequiredFlags(); err != nil {
		t.Errorf("update 未传 --day 应保留原值，实际 %v", err)
	}
}
