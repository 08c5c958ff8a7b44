package sandbox

import "text/template"

// react 文档：UMD 运行时 + babel-standalone 就地转译，挂载失败时显示错误面板。
// 重新挂载前先卸载旧的 root，避免上一次渲染的副作用残留。
var reactDocumentTmpl = template.Must(template.New("react").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<script src="{{.ReactURL}}"></script>
<script src="{{.ReactDOMURL}}"></script>
<script src="{{.BabelURL}}"></script>
<script src="{{.TailwindURL}}"></script>
<style>
:root{
{{- range .Tokens}}
{{.Name}}:{{.Value}};
{{- end}}
}
html,body,#root{margin:0;min-height:100%;}
#sandbox-error{display:none;margin:16px;padding:12px 16px;border:1px solid #fca5a5;border-radius:8px;background:#fef2f2;color:#991b1b;font-family:ui-monospace,monospace;font-size:13px;}
#sandbox-error pre{white-space:pre-wrap;word-break:break-word;margin:8px 0 0;}
#sandbox-error .hint{margin-top:8px;color:#7f1d1d;font-family:system-ui,sans-serif;}
</style>
</head>
<body>
<div id="root"></div>
<div id="sandbox-error">
  <strong>组件运行出错</strong>
  <pre id="sandbox-error-message"></pre>
  <div class="hint">检查组件代码，或在对话中描述这个错误让模型修复。</div>
</div>
<script>
window.__showSandboxError = function (err) {
  var panel = document.getElementById('sandbox-error');
  var msg = document.getElementById('sandbox-error-message');
  msg.textContent = (err && (err.stack || err.message)) || String(err);
  panel.style.display = 'block';
};
window.addEventListener('error', function (e) {
  window.__showSandboxError(e.error || e.message);
});
</script>
<script type="text/babel" data-presets="env,react">
try {
  {{.Code}}

  if (window.__atelierRoot) {
    window.__atelierRoot.unmount();
  }
  window.__atelierRoot = ReactDOM.createRoot(document.getElementById('root'));
  window.__atelierRoot.render(React.createElement({{.Entry}}));
} catch (err) {
  window.__showSandboxError(err);
}
</script>
</body>
</html>
`))

// 装配失败时返回的错误面板文档，iframe 里直接可见。
var failureDocumentTmpl = template.Must(template.New("failure").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>
body{margin:0;min-height:100vh;display:flex;align-items:center;justify-content:center;background:#fafafa;}
.panel{margin:16px;padding:12px 16px;border:1px solid #fca5a5;border-radius:8px;background:#fef2f2;color:#991b1b;font-family:ui-monospace,monospace;font-size:13px;max-width:640px;}
.panel pre{white-space:pre-wrap;word-break:break-word;margin:8px 0 0;}
.panel .hint{margin-top:8px;color:#7f1d1d;font-family:system-ui,sans-serif;}
</style>
</head>
<body>
<div class="panel">
  <strong>预览装配失败</strong>
  <pre>{{.Message}}</pre>
  <div class="hint">组件需要一个默认导出，或一个大写开头的顶层组件声明。</div>
</div>
</body>
</html>
`))

// html 文档：片段直接进 body，只需要 Tailwind 和样式变量。
var htmlDocumentTmpl = template.Must(template.New("html").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<script src="{{.TailwindURL}}"></script>
<style>
:root{
{{- range .Tokens}}
{{.Name}}:{{.Value}};
{{- end}}
}
html,body{margin:0;min-height:100%;}
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))
