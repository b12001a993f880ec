package site

import "html/template"

var pageTemplates = template.Must(template.New("pages").Parse(pageTemplate))

// pageTemplate holds the index and platform page templates and the layout
// pieces they share.
const pageTemplate = `
{{define "head"}}<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}} | {{.SiteTitle}}</title>
  <link rel="stylesheet" href="{{.BasePath}}style.css">
</head>
<body data-base="{{.BasePath}}" data-platform="{{.PlatformKey}}">
  <nav class="sidebar" id="sidebar">
    <div class="sidebar-header">
      <a href="{{.BasePath}}index.html" class="project-title">{{.SiteTitle}}</a>
    </div>
    <div class="sidebar-tree" id="sidebar-tree">
      {{.NavHTML}}
    </div>
  </nav>
  <div class="sidebar-overlay" id="sidebar-overlay"></div>
  <main class="content" id="main-content">
    <div class="top-bar">
      <button class="menu-toggle" id="menu-toggle" aria-label="Toggle sidebar">
        <svg width="24" height="24" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2">
          <line x1="3" y1="6" x2="21" y2="6"/><line x1="3" y1="12" x2="21" y2="12"/><line x1="3" y1="18" x2="21" y2="18"/>
        </svg>
      </button>
      <div class="search-bar">
        <input type="text" id="search-input" placeholder="Search detections..." autocomplete="off">
        <button type="button" id="search-reset" class="search-reset" aria-label="Reset search">×</button>
      </div>
      <button class="theme-toggle" id="theme-toggle" aria-label="Switch theme">
        <span class="theme-toggle-label">Theme</span>
      </button>
    </div>
{{end}}

{{define "foot"}}
  </main>
  <div class="modal-root" id="modal-root"></div>
  <script src="{{.BasePath}}script.js"></script>
</body>
</html>
{{end}}

{{define "index"}}{{template "head" .}}
    <div class="theme-chooser" id="theme-chooser" hidden>
      <h2>Choose your side</h2>
      <div class="theme-options">
        <button type="button" class="defender-button" data-theme="defender">🛡️ Defender</button>
        <button type="button" class="attacker-button" data-theme="attacker">⚔️ Attacker</button>
        <button type="button" class="cyberpunk-button" data-theme="cyberpunk">🌆 Cyberpunk</button>
      </div>
    </div>
    <article class="page-content">
      <h1>{{.SiteTitle}}</h1>
      <p class="results-count" id="results-count">{{.Summary}}</p>
      <div class="search-results" id="search-results" hidden></div>
      <table class="source-table">
        <thead>
          <tr><th>Log Source</th><th>Queries</th><th>Documented Rules</th></tr>
        </thead>
        <tbody>
          {{- range .Sources}}
          <tr class="source-row" style="--platform-accent: {{.Accent}}">
            <td><a class="source-link" data-source="{{.Key}}" href="{{.Path}}">{{.Name}}</a></td>
            <td class="query-count{{if .Static}} static-count{{end}}">{{.Count}}</td>
            <td class="rule-count">{{.Rules}}</td>
          </tr>
          {{- end}}
        </tbody>
      </table>
    </article>
{{template "foot" .}}{{end}}

{{define "platform"}}{{template "head" .}}
    <article class="page-content platform-page" style="--platform-accent: {{.Accent}}">
      <h1 class="platform-title">{{.PlatformName}}</h1>
      {{- if .Overview}}
      <section class="platform-overview">
        {{.Overview}}
      </section>
      {{- end}}
      <p class="results-count" id="results-count">{{.ResultsCount}}</p>
      <div class="table-wrapper">
        <table class="detection-rules-table">
          <thead>
            <tr>
              <th>Detection</th>
              <th>Description</th>
              <th>MITRE ATT&amp;CK</th>
              <th>Data Source</th>
              <th>Query</th>
              <th>Attack Path</th>
              <th>Sample Logs</th>
            </tr>
          </thead>
          <tbody id="detection-rules-table-body">
            {{.Rows}}
          </tbody>
        </table>
      </div>
    </article>
{{template "foot" .}}{{end}}
`

// cssContent is the full CSS for the site. The defender theme is the root
// palette; the other themes override it through a class on <html>.
const cssContent = `/* ============ Palette ============ */
:root {
  --bg: #ffffff;
  --bg-secondary: #f4f6f9;
  --bg-sidebar: #eef1f5;
  --text: #1d2733;
  --text-secondary: #46525f;
  --text-muted: #7b8794;
  --border: #d6dde5;
  --accent: #0b63ce;
  --accent-hover: #0952ab;
  --code-bg: #0f1720;
  --code-text: #d6e2ee;
  --shadow: 0 1px 3px rgba(0,0,0,0.08);
  --shadow-lg: 0 8px 28px rgba(0,0,0,0.2);
  --sidebar-width: 280px;
  --sev-low: #2f9e44;
  --sev-medium: #f59f00;
  --sev-high: #e8590c;
  --sev-critical: #c92a2a;
  --font: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
  --mono: "JetBrains Mono", "Fira Code", Consolas, monospace;
}

.theme-attacker {
  --bg: #140b0b;
  --bg-secondary: #1e1111;
  --bg-sidebar: #100808;
  --text: #f1dede;
  --text-secondary: #cfa9a9;
  --text-muted: #8c6666;
  --border: #3b1f1f;
  --accent: #e03131;
  --accent-hover: #ff4d4d;
  --code-bg: #0a0505;
  --code-text: #ffb3b3;
}

.theme-cyberpunk {
  --bg: #0d0221;
  --bg-secondary: #170734;
  --bg-sidebar: #0a011a;
  --text: #e4f9ff;
  --text-secondary: #b8a9ff;
  --text-muted: #7f6fb3;
  --border: #2d1b69;
  --accent: #ff2a6d;
  --accent-hover: #05d9e8;
  --code-bg: #01012b;
  --code-text: #05d9e8;
  --font: "Orbitron", var(--mono);
}

* { box-sizing: border-box; }

body {
  margin: 0;
  font-family: var(--font);
  background: var(--bg);
  color: var(--text);
  transition: background 0.2s, color 0.2s;
}

a { color: var(--accent); text-decoration: none; }
a:hover { color: var(--accent-hover); text-decoration: underline; }

/* ============ Sidebar ============ */
.sidebar {
  position: fixed; top: 0; left: 0; bottom: 0;
  width: var(--sidebar-width);
  background: var(--bg-sidebar);
  border-right: 1px solid var(--border);
  overflow-y: auto;
  z-index: 20;
}
.sidebar-header { padding: 20px; border-bottom: 1px solid var(--border); }
.project-title { font-size: 1.3rem; font-weight: 700; color: var(--text); }
.sidebar-tree ul { list-style: none; margin: 0; padding: 0 0 0 12px; }
.sidebar-tree > ul { padding: 8px; }
.sidebar-tree li { margin: 2px 0; }
.sidebar-tree li.dir > ul { display: none; }
.sidebar-tree li.dir.expanded > ul { display: block; }
.sidebar-tree a { display: block; padding: 4px 8px; border-radius: 4px; color: var(--text-secondary); font-size: 0.9rem; }
.sidebar-tree a.active, .sidebar-tree li.dir.expanded > .dir-link { color: var(--accent); font-weight: 600; }
.sidebar-overlay { display: none; }

/* ============ Layout ============ */
.content { margin-left: var(--sidebar-width); min-height: 100vh; }
.top-bar {
  display: flex; align-items: center; gap: 12px;
  padding: 12px 24px;
  border-bottom: 1px solid var(--border);
  background: var(--bg-secondary);
  position: sticky; top: 0; z-index: 10;
}
.menu-toggle { display: none; background: none; border: 0; color: var(--text); cursor: pointer; }
.search-bar { flex: 1; display: flex; gap: 4px; max-width: 520px; }
#search-input {
  flex: 1; padding: 8px 12px;
  border: 1px solid var(--border); border-radius: 6px;
  background: var(--bg); color: var(--text);
}
.search-reset, .theme-toggle {
  border: 1px solid var(--border); border-radius: 6px;
  background: var(--bg); color: var(--text);
  padding: 6px 12px; cursor: pointer;
}
.theme-toggle:hover, .search-reset:hover { border-color: var(--accent); }
.page-content { padding: 24px 32px; max-width: 1400px; }
.results-count { color: var(--text-muted); font-size: 0.9rem; }

/* ============ Theme chooser ============ */
.theme-chooser {
  margin: 24px 32px; padding: 24px;
  border: 1px solid var(--border); border-radius: 10px;
  background: var(--bg-secondary); text-align: center;
}
.theme-chooser[hidden] { display: none; }
.theme-options { display: flex; justify-content: center; gap: 16px; flex-wrap: wrap; }
.theme-options button {
  padding: 12px 24px; border-radius: 8px; cursor: pointer;
  font-size: 1rem; border: 2px solid transparent; color: #fff;
}
.defender-button { background: #0b63ce; }
.attacker-button { background: #c92a2a; }
.cyberpunk-button { background: linear-gradient(90deg, #ff2a6d, #05d9e8); }

/* ============ Tables ============ */
table { width: 100%; border-collapse: collapse; }
th, td { padding: 10px 12px; border: 1px solid var(--border); text-align: left; vertical-align: top; }
th { background: var(--bg-secondary); font-weight: 600; }
.source-row td:first-child { border-left: 4px solid var(--platform-accent, var(--accent)); }
.query-count, .rule-count { font-variant-numeric: tabular-nums; }
.static-count::after { content: " *"; color: var(--text-muted); }
.platform-title { border-bottom: 3px solid var(--platform-accent, var(--accent)); padding-bottom: 8px; }
.table-wrapper { overflow-x: auto; }
.detection-row.hidden, .mitre-additional-row.hidden { display: none; }
.detection-title { display: flex; align-items: center; gap: 8px; }
.detection-meta { display: flex; flex-direction: column; font-size: 0.8rem; color: var(--text-muted); margin-top: 4px; }
.severity-indicator { display: inline-block; width: 10px; height: 10px; border-radius: 50%; }
.severity-low { background: var(--sev-low); }
.severity-medium { background: var(--sev-medium); }
.severity-high { background: var(--sev-high); }
.severity-critical { background: var(--sev-critical); box-shadow: 0 0 6px var(--sev-critical); }
.mitre-tactic { font-weight: 600; font-size: 0.85rem; }
.mitre-technique { font-size: 0.8rem; color: var(--text-secondary); }
.no-data { text-align: center; color: var(--text-muted); font-style: italic; }
.view-query-btn, .view-logs-btn {
  border: 1px solid var(--accent); color: var(--accent); background: transparent;
  border-radius: 6px; padding: 6px 10px; cursor: pointer; white-space: nowrap;
}
.view-query-btn:hover, .view-logs-btn:hover { background: var(--accent); color: #fff; }

/* ============ Search results ============ */
.search-results { border: 1px solid var(--border); border-radius: 8px; margin-bottom: 16px; }
.search-results[hidden] { display: none; }
.search-result { display: block; padding: 10px 14px; border-bottom: 1px solid var(--border); }
.search-result:last-child { border-bottom: 0; }
.search-result small { color: var(--text-muted); display: block; }

/* ============ Modals ============ */
.modal {
  display: none;
  position: fixed; inset: 0;
  background: rgba(0,0,0,0.6);
  z-index: 100;
  padding: 4vh 4vw;
  overflow-y: auto;
}
.modal.visible { display: block; }
.modal-content {
  position: relative;
  max-width: 1100px; margin: 0 auto;
  background: var(--bg); color: var(--text);
  border: 1px solid var(--border); border-radius: 10px;
  box-shadow: var(--shadow-lg);
}
.close-btn {
  position: absolute; top: 10px; right: 16px;
  font-size: 1.8rem; line-height: 1; cursor: pointer; color: var(--text-muted);
}
.close-btn:hover { color: var(--accent); }
.modal-header { display: flex; align-items: center; justify-content: space-between; gap: 12px; padding: 16px 56px 16px 20px; border-bottom: 1px solid var(--border); }
.modal-title { font-size: 1.15rem; font-weight: 700; }
.modal-actions { display: flex; gap: 8px; }
.modal-actions button {
  border: 1px solid var(--border); border-radius: 6px;
  background: var(--bg-secondary); color: var(--text);
  padding: 6px 12px; cursor: pointer;
}
.modal-actions button.copied { border-color: var(--sev-low); color: var(--sev-low); }
.modal-body { padding: 20px; }
.modal-loading { padding: 40px; text-align: center; color: var(--text-muted); }
.log-table { font-family: var(--mono); font-size: 0.8rem; white-space: nowrap; }

/* ============ Query shell ============ */
.query-container { border-radius: 8px; overflow: hidden; border: 1px solid var(--border); }
.shell-header { display: flex; align-items: center; gap: 12px; padding: 8px 12px; background: #2b2f36; color: #c9d1d9; }
.shell-controls { display: flex; gap: 6px; }
.shell-control { width: 12px; height: 12px; border-radius: 50%; display: inline-block; }
.shell-control.close { background: #ff5f56; }
.shell-control.minimize { background: #ffbd2e; }
.shell-control.maximize { background: #27c93f; }
.shell-title { font-family: var(--mono); font-size: 0.8rem; }
.shell-content { background: var(--code-bg); color: var(--code-text); padding: 16px; overflow-x: auto; }
.kql-query { margin: 0; font-family: var(--mono); font-size: 0.85rem; white-space: pre; }
.query-explanation, #explanation-section { margin-top: 24px; padding-top: 16px; border-top: 1px dashed var(--border); }

/* ============ Responsive ============ */
@media (max-width: 900px) {
  .sidebar { transform: translateX(-100%); transition: transform 0.2s; }
  .sidebar.open { transform: none; }
  .sidebar-overlay.open { display: block; position: fixed; inset: 0; background: rgba(0,0,0,0.4); z-index: 15; }
  .content { margin-left: 0; }
  .menu-toggle { display: block; }
}
`

// jsContent drives themes, search and modals. With a reachable /healthz the
// page talks to kqlcatalog serve; otherwise it reads the pre-rendered files.
const jsContent = `(function() {
  "use strict";

  var html = document.documentElement;
  var body = document.body;
  var base = body.getAttribute("data-base") || "";
  var platform = body.getAttribute("data-platform") || "";
  var apiMode = false;
  var socket = null;

  // ============ Theme ============
  var THEME_KEY = "att4ckql-theme";
  var THEMES = ["defender", "attacker", "cyberpunk"];
  var chooser = document.getElementById("theme-chooser");

  function validTheme(t) { return THEMES.indexOf(t) !== -1; }

  function applyTheme(t) {
    if (!validTheme(t)) { t = "defender"; }
    html.classList.remove("theme-attacker", "theme-cyberpunk");
    if (t !== "defender") { html.classList.add("theme-" + t); }
    html.setAttribute("data-theme", t);
    try { sessionStorage.setItem(THEME_KEY, t); } catch (e) {}
    if (chooser) { chooser.hidden = true; }
  }

  function currentTheme() {
    var t = html.getAttribute("data-theme");
    return validTheme(t) ? t : "defender";
  }

  function setTheme(t) {
    applyTheme(t);
    if (apiMode) {
      fetch(base + "api/theme", {
        method: "POST",
        headers: { "Content-Type": "application/json" },
        credentials: "same-origin",
        body: JSON.stringify({ theme: t })
      }).catch(function() {});
    }
  }

  function nextTheme(t) {
    var i = THEMES.indexOf(t);
    return THEMES[(i + 1) % THEMES.length];
  }

  var stored = null;
  try { stored = sessionStorage.getItem(THEME_KEY); } catch (e) {}
  if (validTheme(stored)) {
    applyTheme(stored);
  } else if (chooser) {
    chooser.hidden = false;
  }

  if (chooser) {
    chooser.addEventListener("click", function(e) {
      var btn = e.target.closest("button[data-theme]");
      if (btn) { setTheme(btn.getAttribute("data-theme")); }
    });
  }

  var themeToggle = document.getElementById("theme-toggle");
  if (themeToggle) {
    themeToggle.addEventListener("click", function() {
      setTheme(nextTheme(currentTheme()));
    });
  }

  // ============ Sidebar ============
  var menuToggle = document.getElementById("menu-toggle");
  var sidebar = document.getElementById("sidebar");
  var overlay = document.getElementById("sidebar-overlay");
  if (menuToggle && sidebar && overlay) {
    menuToggle.addEventListener("click", function() {
      sidebar.classList.toggle("open");
      overlay.classList.toggle("open");
    });
    overlay.addEventListener("click", function() {
      sidebar.classList.remove("open");
      overlay.classList.remove("open");
    });
  }

  // ============ Search ============
  var searchInput = document.getElementById("search-input");
  var searchReset = document.getElementById("search-reset");
  var resultsCount = document.getElementById("results-count");
  var tableBody = document.getElementById("detection-rules-table-body");
  var searchResults = document.getElementById("search-results");
  var originalCount = resultsCount ? resultsCount.textContent : "";
  var searchIndex = null;

  function pluralResults(n) { return n === 1 ? "1 result" : n + " results"; }

  function ruleGroups() {
    var groups = [];
    var current = null;
    Array.prototype.forEach.call(tableBody.querySelectorAll("tr"), function(tr) {
      if (tr.classList.contains("detection-row")) {
        current = { rows: [tr], text: "" };
        groups.push(current);
      } else if (current && tr.classList.contains("mitre-additional-row")) {
        current.rows.push(tr);
      }
    });
    groups.forEach(function(g) {
      g.text = g.rows.map(function(r) { return r.textContent; }).join(" ").toLowerCase();
    });
    return groups;
  }

  function filterTable(term) {
    if (apiMode) {
      fetch(base + "api/rules/" + encodeURIComponent(platform) + "?q=" + encodeURIComponent(term), { credentials: "same-origin" })
        .then(function(r) { return r.json(); })
        .then(function(data) {
          tableBody.innerHTML = data.html;
          resultsCount.textContent = data.results;
        })
        .catch(function() { filterLocal(term); });
      return;
    }
    filterLocal(term);
  }

  function filterLocal(term) {
    var shown = 0;
    ruleGroups().forEach(function(g) {
      var match = term === "" || g.text.indexOf(term) !== -1;
      g.rows.forEach(function(r) { r.classList.toggle("hidden", !match); });
      if (match) { shown++; }
    });
    if (resultsCount) { resultsCount.textContent = pluralResults(shown); }
  }

  function loadSearchIndex(cb) {
    if (searchIndex) { cb(searchIndex); return; }
    fetch(base + "search-index.json")
      .then(function(r) { return r.json(); })
      .then(function(data) { searchIndex = data; cb(data); })
      .catch(function() { searchIndex = []; cb(searchIndex); });
  }

  function escapeHTML(s) {
    var div = document.createElement("div");
    div.textContent = s;
    return div.innerHTML;
  }

  function searchSources(term) {
    if (term === "") {
      searchResults.hidden = true;
      searchResults.innerHTML = "";
      if (resultsCount) { resultsCount.textContent = originalCount; }
      return;
    }
    loadSearchIndex(function(entries) {
      var hits = entries.filter(function(e) {
        return (e.title + " " + e.summary + " " + e.content + " " + e.platform).toLowerCase().indexOf(term) !== -1;
      });
      searchResults.innerHTML = hits.map(function(e) {
        return '<a class="search-result" href="' + base + e.path + '">' + escapeHTML(e.title) +
          "<small>" + escapeHTML(e.platform) + " | " + escapeHTML(e.summary) + "</small></a>";
      }).join("");
      searchResults.hidden = hits.length === 0;
      if (resultsCount) { resultsCount.textContent = pluralResults(hits.length); }
    });
  }

  function runSearch() {
    var term = searchInput.value.toLowerCase().trim();
    if (tableBody) { filterTable(term); } else if (searchResults) { searchSources(term); }
  }

  if (searchInput) {
    searchInput.addEventListener("input", runSearch);
  }
  if (searchReset && searchInput) {
    searchReset.addEventListener("click", function() {
      searchInput.value = "";
      runSearch();
      if (resultsCount && !tableBody) { resultsCount.textContent = originalCount; }
    });
  }

  // ============ Modals ============
  var modalRoot = document.getElementById("modal-root");
  var activeModal = null;
  var openToken = 0;

  function modalElement(id) {
    var el = document.getElementById(id);
    if (el && el.classList.contains("modal")) { return el; }
    el = document.createElement("div");
    el.className = "modal";
    el.id = id;
    modalRoot.appendChild(el);
    return el;
  }

  function showModal(id, fragment) {
    if (activeModal && activeModal !== id) { hideModal(activeModal); }
    var el = modalElement(id);
    el.innerHTML = fragment;
    el.classList.add("visible");
    activeModal = id;
  }

  function hideModal(id) {
    var el = document.getElementById(id);
    if (el && el.classList.contains("modal")) { el.classList.remove("visible"); }
    if (activeModal === id) { activeModal = null; }
  }

  function loadingFragment(id, kind) {
    var msg = kind === "query" ? "Loading query..." : "Loading content...";
    return '<div class="modal-content"><span class="close-btn" data-dismiss="' + escapeHTML(id) +
      '" role="button" aria-label="Close">×</span><div class="modal-body"><div class="modal-loading">' +
      msg + "</div></div></div>";
  }

  function errorFragment(id, kind, path, status) {
    var title = kind === "query" ? "Error Loading Query" : "Error Loading Content";
    var what = kind === "query" ? "the KQL query" : "the content";
    return '<div class="modal-content"><span class="close-btn" data-dismiss="' + escapeHTML(id) +
      '" role="button" aria-label="Close">×</span><div class="modal-header"><div class="modal-title">' + title +
      '</div></div><div class="modal-body"><p>There was an error loading ' + what + ": HTTP " + status +
      "</p><p>Path attempted: " + escapeHTML(path) + "</p><p>Status: " + status + "</p></div></div>";
  }

  function openModal(id, kind, file) {
    var token = ++openToken;
    showModal(id, loadingFragment(id, kind));

    var url;
    if (apiMode) {
      url = base + "api/modal/" + encodeURIComponent(kind) + "/" + encodeURIComponent(id) +
        "?platform=" + encodeURIComponent(platform) + "&file=" + encodeURIComponent(file || "");
    } else {
      url = base + "modals/" + encodeURIComponent(platform) + "/" + encodeURIComponent(kind) + "/" + encodeURIComponent(id) + ".html";
    }

    fetch(url, { credentials: "same-origin" })
      .then(function(r) {
        if (!r.ok) { throw { status: r.status }; }
        return apiMode ? r.json().then(function(d) { return d.html; }) : r.text();
      })
      .then(function(fragment) {
        // A newer open or a close wins over this response.
        if (token !== openToken || activeModal !== id) { return; }
        showModal(id, fragment);
      })
      .catch(function(err) {
        if (token !== openToken || activeModal !== id) { return; }
        showModal(id, errorFragment(id, kind, url, (err && err.status) || 0));
      });
  }

  function closeModal(id) {
    openToken++;
    hideModal(id);
    if (apiMode) {
      fetch(base + "api/modal/close", {
        method: "POST",
        headers: { "Content-Type": "application/json" },
        credentials: "same-origin",
        body: JSON.stringify({ id: id })
      }).catch(function() {});
    }
  }

  function copyQuery(btn) {
    var modal = btn.closest(".modal");
    if (!modal) { return; }
    var done = function() {
      var label = btn.textContent;
      btn.textContent = "✅ Copied!";
      btn.classList.add("copied");
      setTimeout(function() {
        btn.textContent = label;
        btn.classList.remove("copied");
      }, 2000);
    };
    var local = function() {
      var code = modal.querySelector("pre.kql-query code");
      return code ? code.textContent : "";
    };
    var write = function(text) {
      if (navigator.clipboard) { navigator.clipboard.writeText(text).then(done).catch(function() {}); }
    };
    if (apiMode) {
      fetch(base + "api/modal/copy/" + encodeURIComponent(modal.id), { credentials: "same-origin" })
        .then(function(r) { if (!r.ok) { throw r.status; } return r.json(); })
        .then(function(d) { write(d.text); })
        .catch(function() { write(local()); });
      return;
    }
    write(local());
  }

  document.addEventListener("click", function(e) {
    var opener = e.target.closest("[data-modal-id]");
    if (opener && !opener.closest(".modal")) {
      openModal(opener.getAttribute("data-modal-id"), opener.getAttribute("data-kind") || "log", opener.getAttribute("data-file"));
      return;
    }
    var dismiss = e.target.closest("[data-dismiss]");
    if (dismiss) {
      closeModal(dismiss.getAttribute("data-dismiss"));
      return;
    }
    var action = e.target.closest("[data-action]");
    if (action) {
      var name = action.getAttribute("data-action");
      if (name === "copy") {
        copyQuery(action);
      } else if (name === "explain") {
        var modal = action.closest(".modal");
        var target = modal && modal.querySelector(action.getAttribute("data-target"));
        if (target) { target.scrollIntoView({ behavior: "smooth" }); }
      }
      return;
    }
    // Clicking the backdrop closes the active modal.
    if (e.target.classList && e.target.classList.contains("modal") && activeModal === e.target.id) {
      closeModal(activeModal);
    }
  });

  document.addEventListener("keydown", function(e) {
    if (e.key === "Escape" && activeModal) { closeModal(activeModal); }
  });

  // ============ Server mode ============
  function connectSocket() {
    var proto = location.protocol === "https:" ? "wss:" : "ws:";
    var path = location.pathname.replace(/[^\/]*$/, "") + base + "ws/modal";
    try { socket = new WebSocket(proto + "//" + location.host + path); } catch (e) { return; }
    socket.onmessage = function(msg) {
      var ev;
      try { ev = JSON.parse(msg.data); } catch (e) { return; }
      if (ev.type === "show" && ev.id === activeModal) {
        showModal(ev.id, ev.html);
      } else if (ev.type === "hide") {
        hideModal(ev.id);
      }
    };
  }

  if (location.protocol !== "file:") {
    fetch(base + "healthz", { credentials: "same-origin" })
      .then(function(r) {
        if (!r.ok) { return; }
        apiMode = true;
        connectSocket();
        return fetch(base + "api/theme", { credentials: "same-origin" })
          .then(function(r) { return r.json(); })
          .then(function(d) {
            if (d.saved && validTheme(d.theme)) { applyTheme(d.theme); }
          });
      })
      .catch(function() {});
  }
})();
`
