package repo_test

import (
	"context"
	"testing"

	"proxydesk/internal/storage/db"
	"proxydesk/internal/storage/model"
	"proxydesk/internal/storage/repo"
)

// setupSettingsTestDB 创建用于 SettingsRepo 测试的内存数据库。
func setupSettingsTestDB(t *testing.T) *repo.SettingsRepo {
	gdb, err := db.New(db.Options{
		Name:   ":memory:",
		Prefix: "test_",
	})
	if err != nil {
		t.Fatalf("创建内存数据库失败: %v", err)
	}

	err = db.Migrate(gdb, &model.Setting{})
	if err != nil {
		t.Fatalf("迁移数据库失败: %v", err)
	}

	return repo.NewSettingsRepo(gdb)
}

// TestSettingsRepo_SetAndGet 测试设置的保存与读取。
func TestSettingsRepo_SetAndGet(t *testing.T) {
	r := setupSettingsTestDB(t)

	key := "test_key"
	value := "test_value"

	err := r.Set(context.Background(), key, value)
	if err != nil {
		t.Fatalf("设置失败: %v", err)
	}

	retrieved, err := r.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("获取设置失败: %v", err)
	}

	if retrieved != value {
		t.Errorf("预期值为 %s，实际为 %s", value, retrieved)
	}
}

// TestSettingsRepo_GetWithDefault 测试不存在的键返回默认值。
func TestSettingsRepo_GetWithDefault(t *testing.T) {
	r := setupSettingsTestDB(t)

	defaultVal := "default_value"
	retrieved := r.GetWithDefault(context.Background(), "non_existent_key", defaultVal)

	if retrieved != defaultVal {
		t.Errorf("预期返回默认值 %s，实际返回 %s", defaultVal, retrieved)
	}
}

// TestSettingsRepo_SetMultiple 测试批量设置功能及事务一致性。
func TestSettingsRepo_SetMultiple(t *testing.T) {
	r := setupSettingsTestDB(t)

	kvs := map[string]string{
		"k1": "v1",
		"k2": "v2",
		"k3": "v3",
	}

	err := r.SetMultiple(context.Background(), kvs)
	if err != nil {
		t.Fatalf("批量设置失败: %v", err)
	}

	// 验证所有键值对是否正确保存
	for key, expectedVal := range kvs {
		actualVal, err := r.Get(context.Background(), key)
		if err != nil {
			t.Errorf("获取键 %s 失败: %v", key, err)
		}
		if actualVal != expectedVal {
			t.Errorf("键 %s 预期值 %s，实际值 %s", key, expectedVal, actualVal)
		}
	}
}

// TestSettingsRepo_DeleteByKey 测试按键删除功能。
func TestSettingsRepo_DeleteByKey(t *testing.T) {
	r := setupSettingsTestDB(t)

	key := "to_delete"
	r.Set(context.Background(), key, "some_value")

	err := r.DeleteByKey(context.Background(), key)
	if err != nil {
		t.Fatalf("删除失败: %v", err)
	}

	_, err = r.Get(context.Background(), key)
	if err == nil {
		t.Error("预期键已删除，但仍然能获取到值")
	}
}

// TestSettingsRepo_PendingProfile 测试待激活标记的写入、查看与消费。
func TestSettingsRepo_PendingProfile(t *testing.T) {
	r := setupSettingsTestDB(t)
	ctx := context.Background()

	// 初始无标记
	if _, ok := r.PeekPendingProfile(ctx); ok {
		t.Error("初始状态不应有待激活标记")
	}

	err := r.SetPendingProfile(ctx, "profile-uid-1")
	if err != nil {
		t.Fatalf("写入待激活标记失败: %v", err)
	}

	// Peek 不消费
	uid, ok := r.PeekPendingProfile(ctx)
	if !ok || uid != "profile-uid-1" {
		t.Fatalf("Peek 预期返回 profile-uid-1，实际 %s (ok=%v)", uid, ok)
	}
	if _, ok := r.PeekPendingProfile(ctx); !ok {
		t.Error("Peek 不应消费标记")
	}

	// Take 消费
	uid, taken, err := r.TakePendingProfile(ctx)
	if err != nil {
		t.Fatalf("消费待激活标记失败: %v", err)
	}
	if !taken || uid != "profile-uid-1" {
		t.Fatalf("Take 预期返回 profile-uid-1，实际 %s (taken=%v)", uid, taken)
	}

	// 消费后标记应已清除
	if _, ok := r.PeekPendingProfile(ctx); ok {
		t.Error("消费后标记应已清除")
	}

	// 再次消费应返回未取到
	_, taken, err = r.TakePendingProfile(ctx)
	if err != nil {
		t.Fatalf("二次消费不应报错: %v", err)
	}
	if taken {
		t.Error("每个标记只应被消费一次")
	}
}

// TestSettingsRepo_PresetKeys 测试预设置的键是否按预期工作。
func TestSettingsRepo_PresetKeys(t *testing.T) {
	r := setupSettingsTestDB(t)
	ctx := context.Background()

	// 测试 Theme
	expectedTheme := "dark"
	r.SetTheme(ctx, expectedTheme)
	actualTheme := r.GetTheme(ctx)
	if actualTheme != expectedTheme {
		t.Errorf("Theme 预期 %s，实际 %s", expectedTheme, actualTheme)
	}

	// 测试 Language
	expectedLang := "en"
	r.SetLanguage(ctx, expectedLang)
	actualLang := r.GetLanguage(ctx)
	if actualLang != expectedLang {
		t.Errorf("Language 预期 %s，实际 %s", expectedLang, actualLang)
	}

	// 删除后应回到默认值
	r.DeleteByKey(ctx, model.SettingKeyTheme)
	if theme := r.GetTheme(ctx); theme != "system" {
		t.Errorf("Theme 默认值不符合预期，实际为 %s", theme)
	}
}
